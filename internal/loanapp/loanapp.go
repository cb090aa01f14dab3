package loanapp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/request"
)

// Application is the slice of a loan application the back office cares
// about: the agreed duration used to refresh amortization assumptions.
type Application struct {
	ApplicationID  string `json:"application_id"`
	DurationMonths int    `json:"duration_months"`
	ProductID      string `json:"product_id"`
}

// Client looks up loan applications on the loan-origination service.
type Client struct {
	url string
}

func NewClient(cfg config.LoanApplicationConfig) *Client {
	return &Client{url: cfg.Url}
}

// GetApplication fetches a loan application by id. A missing application is
// not an error for callers that only want to refresh the duration; they keep
// the value already on the loan.
func (c *Client) GetApplication(ctx context.Context, token, applicationID string) (*Application, error) {
	if c == nil || c.url == "" || applicationID == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/loanapplications/%s", c.url, applicationID), nil)
	if err != nil {
		return nil, err
	}
	request.BearerAuth(req, token)

	var app Application
	resp, err := request.Call(req, &app)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loan application service returned status %d", resp.StatusCode)
	}
	return &app, nil
}

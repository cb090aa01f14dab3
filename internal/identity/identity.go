package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/request"
)

// Client talks to the identity service that issues the bearer tokens used on
// every sibling-service call. Tokens are fetched fresh per run, never cached
// across runs.
type Client struct {
	url      string
	email    string
	password string
	timeout  time.Duration
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	BearerToken string `json:"bearer_token"`
	ExpiresIn   int    `json:"expires_in"`
	Message     string `json:"message,omitempty"`
}

func NewClient(cfg config.IdentityConfig) *Client {
	return &Client{
		url:      cfg.Url,
		email:    cfg.Email,
		password: cfg.Password,
		timeout:  time.Duration(cfg.Timeout) * time.Second,
	}
}

// Authenticate logs in against the identity service and returns a bearer
// token. Transient failures are retried with exponential backoff bounded by
// the configured timeout; callers treat a final failure as fatal for the
// current run only.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("identity service url is not configured")
	}

	var token string
	operation := func() error {
		payload, err := request.ToJsonReq(loginRequest{Email: c.email, Password: c.password})
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/authentication/login", payload)
		if err != nil {
			return backoff.Permanent(err)
		}

		var login loginResponse
		resp, err := request.Call(req, &login)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, login.Message)
		}
		if login.BearerToken == "" {
			return backoff.Permanent(fmt.Errorf("identity service returned an empty token"))
		}
		token = login.BearerToken
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.timeout
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		logrus.Warnf("authentication against identity service failed: %v", err)
		return "", err
	}
	return token, nil
}

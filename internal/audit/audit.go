package audit

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/request"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Event is one audit-trail record shipped to the audit service.
type Event struct {
	Action           string `json:"action"`
	UserName         string `json:"user_name"`
	MicroserviceName string `json:"microservice_name"`
	SerializedObject string `json:"serialized_object"`
	DetailMessage    string `json:"detail_message"`
	Level            Level  `json:"level"`
	StatusCode       int    `json:"status_code"`
}

// Client ships audit events to the audit-trail service. Auditing is
// fire-and-forget: a failed audit call is logged and swallowed, it never
// fails the business operation it describes.
type Client struct {
	url              string
	microserviceName string
}

func NewClient(cfg config.AuditConfig) *Client {
	return &Client{url: cfg.Url, microserviceName: cfg.MicroserviceName}
}

// LogAndAudit records an audit event for the given action. The subject is
// serialized to JSON and attached to the event.
func (c *Client) LogAndAudit(ctx context.Context, token, action, userName string, subject interface{}, detail string, level Level, statusCode int) {
	if c == nil || c.url == "" {
		return
	}

	serialized, err := json.Marshal(subject)
	if err != nil {
		logrus.Warnf("audit: could not serialize subject for action %s: %v", action, err)
		serialized = []byte("{}")
	}

	event := Event{
		Action:           action,
		UserName:         userName,
		MicroserviceName: c.microserviceName,
		SerializedObject: string(serialized),
		DetailMessage:    detail,
		Level:            level,
		StatusCode:       statusCode,
	}

	payload, err := request.ToJsonReq(event)
	if err != nil {
		logrus.Warnf("audit: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/audit", payload)
	if err != nil {
		logrus.Warnf("audit: %v", err)
		return
	}
	request.BearerAuth(req, token)

	var response map[string]interface{}
	resp, err := request.Call(req, &response)
	if err != nil {
		logrus.Warnf("audit: call failed for action %s: %v", action, err)
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		logrus.Warnf("audit: service returned status %d for action %s", resp.StatusCode, action)
	}
}

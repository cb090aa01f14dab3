package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/kolofinance/kolo/config"
)

func TestLogAndAudit(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var received Event
	httpmock.RegisterResponder(http.MethodPost, "http://audit.test/api/audit",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tkn_test", req.Header.Get("Authorization"))
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"status": "recorded"})
		})

	client := NewClient(config.AuditConfig{Url: "http://audit.test", MicroserviceName: "kolo"})
	client.LogAndAudit(context.Background(), "tkn_test", "CreateLoan", "teller-1",
		map[string]string{"loan_id": "ln_123"}, "loan created", LevelInfo, http.StatusCreated)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, "CreateLoan", received.Action)
	assert.Equal(t, "teller-1", received.UserName)
	assert.Equal(t, "kolo", received.MicroserviceName)
	assert.Equal(t, LevelInfo, received.Level)
	assert.Equal(t, http.StatusCreated, received.StatusCode)
	assert.JSONEq(t, `{"loan_id":"ln_123"}`, received.SerializedObject)
}

func TestLogAndAuditIsFireAndForget(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://audit.test/api/audit",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	client := NewClient(config.AuditConfig{Url: "http://audit.test", MicroserviceName: "kolo"})

	// Must not panic or surface the failure.
	client.LogAndAudit(context.Background(), "tkn_test", "CreateLoan", "teller-1", nil, "", LevelError, 500)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLogAndAuditNoopWhenUnconfigured(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := NewClient(config.AuditConfig{})
	client.LogAndAudit(context.Background(), "", "CreateLoan", "teller-1", nil, "", LevelInfo, 200)

	var nilClient *Client
	nilClient.LogAndAudit(context.Background(), "", "CreateLoan", "teller-1", nil, "", LevelInfo, 200)

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

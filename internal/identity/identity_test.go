package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/kolofinance/kolo/config"
)

func newTestClient() *Client {
	return NewClient(config.IdentityConfig{
		Url:      "http://identity.test",
		Email:    "batch@kolo.test",
		Password: "secret",
		Timeout:  1,
	})
}

func TestAuthenticate(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://identity.test/api/authentication/login",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			assert.Equal(t, "batch@kolo.test", body["email"])
			assert.Equal(t, "secret", body["password"])
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"bearer_token": "tkn_test",
				"expires_in":   3600,
			})
		})

	token, err := newTestClient().Authenticate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tkn_test", token)
}

func TestAuthenticateRetriesThenSucceeds(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodPost, "http://identity.test/api/authentication/login",
		func(*http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewJsonResponse(http.StatusServiceUnavailable, map[string]interface{}{
					"message": "maintenance window",
				})
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"bearer_token": "tkn_after_retry",
			})
		})

	token, err := newTestClient().Authenticate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tkn_after_retry", token)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestAuthenticateEmptyTokenIsPermanent(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://identity.test/api/authentication/login",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
			"bearer_token": "",
		}))

	_, err := newTestClient().Authenticate(context.Background())
	assert.ErrorContains(t, err, "empty token")
	// A permanent error must not be retried.
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestAuthenticateWithoutURL(t *testing.T) {
	client := NewClient(config.IdentityConfig{})
	_, err := client.Authenticate(context.Background())
	assert.ErrorContains(t, err, "not configured")
}

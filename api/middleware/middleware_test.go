package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kolofinance/kolo/config"
)

func secretKeyRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecretKeyAuthMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestSecretKeyAuthMiddleware(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{Secure: true, SecretKey: "master-key"},
	})
	router := secretKeyRouter()

	tests := []struct {
		name          string
		key           string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Valid secret key",
			key:          "master-key",
			expectedCode: http.StatusOK,
		},
		{
			name:          "Missing secret key",
			key:           "",
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Missing secret key",
		},
		{
			name:          "Invalid secret key",
			key:           "wrong-key",
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid secret key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.key != "" {
				req.Header.Set("X-Kolo-Key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestSecretKeyAuthMiddlewareUnconfigured(t *testing.T) {
	config.MockConfig(&config.Configuration{})
	router := secretKeyRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Kolo-Key", "master-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Secret key is not configured")
}

func TestUserContextMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(UserContextMiddleware())
	router.GET("/whoami", func(c *gin.Context) {
		user := RequestUser(c)
		c.JSON(http.StatusOK, gin.H{
			"user_name": user.UserName,
			"email":     user.Email,
			"branch_id": user.BranchID,
			"token":     user.Token,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Name", "teller-1")
	req.Header.Set("X-User-Email", "teller@kolo.test")
	req.Header.Set("X-Branch-Id", "br_001")
	req.Header.Set("Authorization", "Bearer tkn_test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_name":"teller-1","email":"teller@kolo.test","branch_id":"br_001","token":"tkn_test"}`, w.Body.String())
}

func TestRequestUserWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, RequestUser(c))
}

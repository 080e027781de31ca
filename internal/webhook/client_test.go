package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/config"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.WebhookConfig{
		BaseURL:        server.URL,
		URL:            server.URL + "/webhook/buzon",
		TimeoutSeconds: 2,
	}, zap.NewNop())
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestDeliverSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/webhook/buzon", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		jsonHandler(http.StatusOK, `{"success": true, "id": "abc"}`)(w, r)
	})

	data, err := c.Deliver(context.Background(), map[string]any{"tipo": "anonimo"})
	require.NoError(t, err)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "abc", data["id"])
}

func TestDeliverStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		code   string
	}{
		{"bad request", http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"unprocessable", http.StatusUnprocessableEntity, apperrors.CodeValidationFailed},
		{"unauthorized", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"forbidden", http.StatusForbidden, apperrors.CodeForbidden},
		{"not found", http.StatusNotFound, apperrors.CodeNotFound},
		{"conflict", http.StatusConflict, apperrors.CodeConflict},
		{"rate limited", http.StatusTooManyRequests, apperrors.CodeRateLimited},
		{"server error", http.StatusInternalServerError, apperrors.CodeServerError},
		{"bad gateway", http.StatusBadGateway, apperrors.CodeServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, jsonHandler(tc.status, `{}`))
			_, err := c.Deliver(context.Background(), map[string]any{})
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}
}

func TestDeliverPreservesServerMessage(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusConflict, `{"message": "Ticket duplicado"}`))
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "Ticket duplicado", apperrors.ToDomainError(err).Message)
}

func TestDeliverDefaultSpanishMessages(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusInternalServerError, `{}`))
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "Error interno del servidor. Por favor intenta más tarde.", apperrors.ToDomainError(err).Message)
}

func TestDeliverValidationDetails(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusBadRequest, `{"errors": {"email": "inválido"}}`))
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "inválido", apperrors.ToDomainError(err).Details["email"])
}

func TestDeliverMalformedJSONBody(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusOK, `not json at all`))
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeServerError))
}

func TestDeliverNonJSONSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	data, err := c.Deliver(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ok", data["message"])
}

func TestDeliverUnreachableEndpoint(t *testing.T) {
	c := NewClient(config.WebhookConfig{
		URL:            "http://127.0.0.1:1/webhook",
		TimeoutSeconds: 1,
	}, zap.NewNop())
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOffline), "got %v", err)
}

func TestDeliverWithoutURL(t *testing.T) {
	c := NewClient(config.WebhookConfig{}, zap.NewNop())
	_, err := c.Deliver(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternalError))
}

func TestHealthProxies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		jsonHandler(http.StatusOK, `{"status": "ok"}`)(w, r)
	})
	data, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", data["status"])
}

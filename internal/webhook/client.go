package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/config"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// Default user-facing messages per failure category, used when the upstream
// response carries no message of its own.
const (
	msgTimeout      = "La solicitud ha excedido el tiempo límite. Por favor intenta nuevamente."
	msgOffline      = "No hay conexión a internet. Verifica tu conexión y vuelve a intentar."
	msgConnection   = "Error de conexión. Por favor intenta nuevamente."
	msgBadRequest   = "Los datos enviados no son válidos"
	msgUnprocess    = "Los datos no cumplen con los requisitos"
	msgUnauthorized = "No tienes autorización para realizar esta acción"
	msgForbidden    = "No tienes permisos para realizar esta acción"
	msgNotFound     = "El recurso solicitado no fue encontrado"
	msgConflict     = "Conflicto con el estado actual del recurso"
	msgRateLimit    = "Demasiadas solicitudes. Por favor espera un momento antes de intentar nuevamente."
	msgServerError  = "Error interno del servidor. Por favor intenta más tarde."
)

// Client delivers submission payloads to the intake webhook and proxies
// simple GET endpoints of the upstream API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	webhookURL string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient builds a webhook client from configuration.
func NewClient(cfg config.WebhookConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		webhookURL: cfg.URL,
		timeout:    cfg.Timeout(),
		logger:     logger,
	}
}

// Deliver posts the payload to the webhook, bounded by the configured
// timeout. The returned map is the decoded upstream response body.
func (c *Client) Deliver(ctx context.Context, payload any) (map[string]any, error) {
	if c.webhookURL == "" {
		return nil, apperrors.NewInternalError(errors.New("webhook URL not configured"))
	}
	return c.post(ctx, c.webhookURL, payload)
}

// Health fetches the upstream health endpoint.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.get(ctx, c.baseURL+"/health")
}

// Stats fetches the upstream statistics endpoint.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	return c.get(ctx, c.baseURL+"/stats")
}

func (c *Client) post(ctx context.Context, url string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("marshal payload: %w", err))
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(body))
}

func (c *Client) get(ctx context.Context, url string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	return processResponse(resp)
}

// classifyTransportError maps transport failures onto the taxonomy: deadline
// expiry is distinct from an unreachable endpoint, everything else collapses
// to a generic connection error.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(msgTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError(msgTimeout)
	}
	if isUnreachable(err) {
		return apperrors.NewOfflineError(msgOffline)
	}
	return apperrors.NewNetworkError(msgConnection, err)
}

func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ENETDOWN)
}

// processResponse decodes the body and maps HTTP status codes onto the
// failure taxonomy, preserving the server-provided message when present.
func processResponse(resp *http.Response) (map[string]any, error) {
	data := map[string]any{}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError(msgConnection, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") && len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, apperrors.NewDomainError(apperrors.CodeServerError,
				"Error al procesar la respuesta del servidor", http.StatusBadGateway, nil)
		}
	} else {
		data["message"] = string(raw)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	message := serverMessage(data)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return nil, apperrors.NewValidationError(orDefault(message, msgBadRequest), fieldErrors(data))
	case http.StatusUnprocessableEntity:
		return nil, apperrors.NewValidationError(orDefault(message, msgUnprocess), fieldErrors(data))
	case http.StatusUnauthorized:
		return nil, apperrors.NewUnauthorized(orDefault(message, msgUnauthorized))
	case http.StatusForbidden:
		return nil, apperrors.NewForbidden(orDefault(message, msgForbidden))
	case http.StatusNotFound:
		return nil, apperrors.NewDomainError(apperrors.CodeNotFound, orDefault(message, msgNotFound), http.StatusNotFound, nil)
	case http.StatusConflict:
		return nil, apperrors.NewConflict(orDefault(message, msgConflict), nil)
	case http.StatusTooManyRequests:
		return nil, apperrors.NewRateLimited(orDefault(message, msgRateLimit))
	default:
		if resp.StatusCode >= 500 {
			return nil, apperrors.NewServerError(orDefault(message, msgServerError), resp.StatusCode)
		}
		return nil, apperrors.NewDomainError(apperrors.CodeServerError,
			orDefault(message, fmt.Sprintf("Error del servidor (%d)", resp.StatusCode)), http.StatusBadGateway, nil)
	}
}

func serverMessage(data map[string]any) string {
	if msg, ok := data["message"].(string); ok {
		return strings.TrimSpace(msg)
	}
	return ""
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func fieldErrors(data map[string]any) map[string]any {
	if raw, ok := data["errors"].(map[string]any); ok {
		return raw
	}
	return map[string]any{}
}

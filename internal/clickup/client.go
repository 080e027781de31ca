package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/why-platform/buzon-service/internal/config"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// Client is a thin HTTP client for the ClickUp REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ClickUpConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.request(ctx, http.MethodGet, endpoint, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.request(ctx, http.MethodPost, endpoint, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.request(ctx, http.MethodPut, endpoint, body, out)
}

func (c *Client) request(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("marshal clickup request: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("clickup api unreachable", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewNetworkError("decode clickup response", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	message := fmt.Sprintf("ClickUp API Error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorized(message)
	case http.StatusForbidden:
		return apperrors.NewForbidden(message)
	case http.StatusNotFound:
		return apperrors.NewNotFound("clickup task", map[string]any{"status": resp.StatusCode})
	case http.StatusTooManyRequests:
		return apperrors.NewRateLimited(message)
	default:
		if resp.StatusCode >= 500 {
			return apperrors.NewServerError(message, resp.StatusCode)
		}
		return apperrors.NewDomainError(apperrors.CodeNetworkError, message, http.StatusBadGateway, nil)
	}
}

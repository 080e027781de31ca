package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/api/dto"
	"github.com/why-platform/buzon-service/internal/auth"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// AuthHandler exchanges the admin API key for a JWT.
type AuthHandler struct {
	tokens       *auth.TokenManager
	adminKeyHash string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager, adminKeyHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, adminKeyHash: adminKeyHash}
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.APIKey == "" {
		return fiber.NewError(http.StatusBadRequest, "api_key required")
	}
	if h.adminKeyHash == "" {
		return apperrors.NewForbidden("admin access not configured")
	}
	if err := auth.CompareAPIKey(h.adminKeyHash, req.APIKey); err != nil {
		return apperrors.NewUnauthorized("invalid api key")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}

package dto

import "time"

// TokenRequest exchanges an admin API key for a JWT.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// AuthResponse carries issued token metadata.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

package models

// ScopeRisk grants access to the risk data endpoints.
const ScopeRisk = "risk:read"

// ClientClaims is the validated content of an access token.
type ClientClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	Exp      int64  `json:"exp"`
}

// TokenRequest is the client-credentials body of POST /api/auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// TokenResponse is returned on successful token issuance.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

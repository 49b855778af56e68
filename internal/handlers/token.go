package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/safe-route/internal/auth"
	"github.com/ukydev/safe-route/internal/models"
)

// TokenHandler issues access tokens for the risk API.
type TokenHandler struct {
	authService *auth.Service
	validate    *validator.Validate
}

func NewTokenHandler(authService *auth.Service) *TokenHandler {
	return &TokenHandler{authService: authService, validate: validator.New()}
}

// IssueToken exchanges client credentials for a bearer token.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid token request", validationMessages(err))
		return
	}

	token, err := h.authService.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		RespondWithError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.authService.Expiry().Seconds()),
	})
}

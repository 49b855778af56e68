package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/safe-route/internal/models"
)

// ErrorResponse is the error envelope of the saferoute API.
type ErrorResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse is the success envelope of the saferoute API.
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string, errs []string) {
	respondWithJSON(w, code, ErrorResponse{Status: "error", Message: message, Errors: errs})
}

func RespondWithSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	respondWithJSON(w, code, SuccessResponse{Status: "success", Message: message, Data: data})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// StatusForError maps a pipeline error to an HTTP status code.
func StatusForError(err error) int {
	var svcErr *models.ServiceError
	switch {
	case errors.Is(err, models.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrLocationNotFound), errors.Is(err, models.ErrNoRoute):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrMalformedResponse), errors.As(err, &svcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FormatValidationError renders one validator failure for API clients.
func FormatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must have at least " + err.Param() + " items"
	case "len":
		return err.Field() + " must have exactly " + err.Param() + " items"
	default:
		return err.Field() + " failed " + err.Tag() + " validation"
	}
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, len(verrs))
	for i, fe := range verrs {
		out[i] = FormatValidationError(fe)
	}
	return out
}

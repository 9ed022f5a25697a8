package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smukkama/symptom-intel/internal/model"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusFor maps the engine's error taxonomy onto HTTP
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidReport):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrAlreadyResponded):
		return http.StatusConflict, "already_responded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

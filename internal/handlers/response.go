package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
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

// RespondAppError maps the engine's error taxonomy onto HTTP statuses.
// AlreadyResolved keeps its own code in the payload so UIs can say
// "already handled" instead of "does not exist".
func RespondAppError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		RespondError(c, http.StatusServiceUnavailable, apperr.CodeUnavailable, err)
		return
	}
	status := http.StatusServiceUnavailable
	switch ae.Code {
	case apperr.CodeInvalidArgument:
		status = http.StatusBadRequest
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeAlreadyResolved, apperr.CodeConflict:
		status = http.StatusConflict
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: ae.Message,
			Code:    ae.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

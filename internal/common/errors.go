package common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is rendered as the OpenAI error envelope
// {"error":{"message":...,"type":...,"code":...}}.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func AuthError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Message: "Invalid API key provided",
		Type:    "invalid_request_error",
		Code:    "invalid_api_key",
	}
}

func NotFoundError(path string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("Path %s not found", path),
		Type:    "internal_error",
		Code:    "internal_error",
	}
}

func RateLimitError() *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Message: "Rate limit reached for requests",
		Type:    "requests",
		Code:    "rate_limit_exceeded",
	}
}

func InternalError(err error) *APIError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: msg,
		Type:    "internal_error",
		Code:    "internal_error",
	}
}

// Fail writes the envelope and aborts the handler chain.
func Fail(c *gin.Context, e *APIError) {
	c.AbortWithStatusJSON(e.Status, gin.H{"error": e})
}

// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"profile_portal_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// FieldErrors sends a 400 with a field -> messages body, e.g.
// {"phone": ["enter a valid phone number"]}.
func FieldErrors(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusBadRequest, fields)
}

// Detail sends {"detail": message} with the given status.
func Detail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"detail": message})
}

// HandleError maps domain errors to HTTP responses.
// Typed errors whose Details is a map (field -> messages, or a prepared
// body) are rendered as that map so clients can read errors per field.
// Other typed errors render {"detail": message}. The Kind picks the status
// code; untyped errors are internal.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := apperr.As(err); ok {
		switch body := domainErr.Details.(type) {
		case map[string][]string:
			if len(body) > 0 {
				c.JSON(domainErr.HTTPStatus(), body)
				return true
			}
		case map[string]any:
			if len(body) > 0 {
				c.JSON(domainErr.HTTPStatus(), body)
				return true
			}
		}
		c.JSON(domainErr.HTTPStatus(), gin.H{"detail": domainErr.Message})
		return true
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	return true
}

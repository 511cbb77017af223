package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrAppNotFound), errors.Is(err, types.ErrWindowNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidBounds), errors.Is(err, types.ErrInvalidLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func windowNotFound(c *gin.Context, windowID string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":     types.ErrWindowNotFound.Error(),
		"window_id": windowID,
	})
}

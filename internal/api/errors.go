// Package api exposes the HTTP surface: ticket operations, escalation
// evaluation, feedback and operational endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// respondError maps domain errors onto HTTP statuses. An out-of-scope ticket
// reports not found, same as a missing one, so probing ids reveals nothing.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, access.ErrInsufficientPermissions):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, access.ErrAccessDenied), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
	case errors.Is(err, sla.ErrNoPolicyConfigured):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no SLA policy configured for this priority"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "ticket was modified concurrently, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/service"
)

// EscalationHandler serves the on-demand escalation evaluation endpoint.
type EscalationHandler struct {
	escalations *service.EscalationService
}

// NewEscalationHandler creates an escalation handler.
func NewEscalationHandler(escalations *service.EscalationService) *EscalationHandler {
	return &EscalationHandler{escalations: escalations}
}

// Evaluate handles POST /api/v1/tickets/:id/escalations/evaluate. The
// response lists every active rule's outcome; rules already executed for the
// current ticket state report skipped, not executed again.
func (h *EscalationHandler) Evaluate(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	results, err := h.escalations.EvaluateTicket(c.Request.Context(), actorID, ticketID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

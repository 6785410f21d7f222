package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/service"
)

// FeedbackHandler serves customer rating endpoints.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit handles POST /api/v1/tickets/:id/feedback.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	fb, err := h.feedback.Submit(c.Request.Context(), actorID, ticketID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": fb})
}

// Latest handles GET /api/v1/tickets/:id/feedback.
func (h *FeedbackHandler) Latest(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	fb, err := h.feedback.Latest(c.Request.Context(), actorID, ticketID)
	if err != nil {
		respondError(c, err)
		return
	}
	if fb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no feedback submitted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": fb})
}

func (h *FeedbackHandler) ids(c *gin.Context) (actorID, ticketID int64, ok bool) {
	actorID, ok = middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return 0, 0, false
	}
	return actorID, ticketID, true
}

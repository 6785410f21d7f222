package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xeonx/timeago"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/service"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// TicketHandler serves the ticket endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler creates a ticket handler.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// ticketResponse is the wire shape of a ticket with its SLA state.
type ticketResponse struct {
	Ticket *models.Ticket `json:"ticket"`
	SLA    *slaPayload    `json:"sla,omitempty"`
}

type slaPayload struct {
	DueAt          time.Time          `json:"due_at"`
	DueHuman       string             `json:"due_human"`
	Remaining      string             `json:"remaining"`
	Classification sla.Classification `json:"classification"`
}

func toResponse(t *service.TicketWithSLA) ticketResponse {
	out := ticketResponse{Ticket: t.Ticket}
	if t.SLA != nil {
		out.SLA = &slaPayload{
			DueAt:          t.SLA.DueAt,
			DueHuman:       timeago.English.Format(t.SLA.DueAt),
			Remaining:      t.SLA.Remaining.String(),
			Classification: t.SLA.Classification,
		}
	}
	return out
}

// List handles GET /api/v1/tickets.
func (h *TicketHandler) List(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	filter := access.TicketFilter{
		Status:       models.TicketStatus(c.Query("status")),
		Priority:     models.TicketPriority(c.Query("priority")),
		Search:       c.Query("q"),
		AssignedToMe: c.Query("assigned_to_me") == "true",
	}
	if from, err := parseTimeQuery(c, "created_from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_from"})
		return
	} else {
		filter.CreatedFrom = from
	}
	if to, err := parseTimeQuery(c, "created_to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_to"})
		return
	} else {
		filter.CreatedTo = to
	}

	tickets, err := h.tickets.ListTickets(c.Request.Context(), actorID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": out, "count": len(out)})
}

// Get handles GET /api/v1/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	ticket, err := h.tickets.GetTicket(c.Request.Context(), actorID, ticketID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(ticket))
}

// Create handles POST /api/v1/tickets.
func (h *TicketHandler) Create(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var input service.CreateTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket, err := h.tickets.CreateTicket(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// UpdateStatus handles POST /api/v1/tickets/:id/status.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		Status models.TicketStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket, err := h.tickets.TransitionStatus(c.Request.Context(), actorID, ticketID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// UpdatePriority handles POST /api/v1/tickets/:id/priority.
func (h *TicketHandler) UpdatePriority(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		Priority models.TicketPriority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket, err := h.tickets.ChangePriority(c.Request.Context(), actorID, ticketID, req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// Assign handles POST /api/v1/tickets/:id/assign.
func (h *TicketHandler) Assign(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		AssigneeID int64 `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket, err := h.tickets.Assign(c.Request.Context(), actorID, ticketID, req.AssigneeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// SetDueDate handles PUT /api/v1/tickets/:id/due-date. A null due_at clears
// the override and the ticket falls back to its priority policy.
func (h *TicketHandler) SetDueDate(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		DueAt *time.Time `json:"due_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket, err := h.tickets.SetCustomDueDate(c.Request.Context(), actorID, ticketID, req.DueAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// AddFollowers handles POST /api/v1/tickets/:id/followers.
func (h *TicketHandler) AddFollowers(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	var req struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}
	added, err := h.tickets.AddFollowers(c.Request.Context(), actorID, ticketID, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// GetSLA handles GET /api/v1/tickets/:id/sla. A priority with no active
// policy is a 422 here, not silently omitted.
func (h *TicketHandler) GetSLA(c *gin.Context) {
	actorID, ticketID, ok := h.ids(c)
	if !ok {
		return
	}
	state, err := h.tickets.GetSLAState(c.Request.Context(), actorID, ticketID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slaPayload{
		DueAt:          state.DueAt,
		DueHuman:       timeago.English.Format(state.DueAt),
		Remaining:      state.Remaining.String(),
		Classification: state.Classification,
	})
}

func (h *TicketHandler) ids(c *gin.Context) (actorID, ticketID int64, ok bool) {
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

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

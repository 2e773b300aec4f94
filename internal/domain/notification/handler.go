package notification

import (
	"log/slog"
	"net/http"

	"notigate/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler creates a new notification handler. dispatcher is normally
// the rate-limit gate wrapped around the real delegate.
func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Send handles POST /api/v1/send
// Dispatches a notification to every recipient that clears the rate
// limit and returns 202 Accepted. Suppressed recipients are not reported
// in the response; they surface as rate limit events and notice logs.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleError(c, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	msg := Message{Kind: req.Type, Data: req.Data, KeyParts: req.KeyParts}
	recipients := make([]Recipient, 0, len(req.To))
	for _, to := range req.To {
		recipients = append(recipients, Address(to))
	}

	if err := h.dispatcher.Dispatch(c.Request.Context(), msg, recipients...); err != nil {
		slog.Error("dispatch failed",
			"error", err,
			"type", req.Type,
			"recipients", len(req.To),
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, SendResponse{
		Type:       req.Type,
		Recipients: len(req.To),
		Status:     "dispatched",
	})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/send", h.Send)
}

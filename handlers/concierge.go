// File: handlers/concierge.go
package handlers

import (
	"errors"
	"net/http"

	"planora/models"
	"planora/services/concierge"
	"planora/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateSessionRequest is the payload for opening a trip session.
type CreateSessionRequest struct {
	Destinations []models.Destination       `json:"destinations" binding:"required"`
	CityMeta     map[string]models.CityMeta `json:"cityMeta"`
}

// CreateSessionResponse returns the new session plus the opening messages.
type CreateSessionResponse struct {
	ID       string               `json:"id"`
	State    *models.TripState    `json:"state"`
	Messages []models.ChatMessage `json:"messages"`
}

// TurnRequest is one user turn.
type TurnRequest struct {
	Text string `json:"text"`
}

// ConciergeHandler exposes the conversational itinerary engine over HTTP.
type ConciergeHandler struct {
	Service concierge.ConciergeService
}

func NewConciergeHandler(svc concierge.ConciergeService) *ConciergeHandler {
	return &ConciergeHandler{Service: svc}
}

// CreateSessionHandler opens a session for a list of destinations.
func (h *ConciergeHandler) CreateSessionHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid create-session request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	id, state, messages, err := h.Service.CreateSession(c.Request.Context(), req.Destinations, req.CityMeta)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Could not create session", err.Error())
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{ID: id, State: state, Messages: messages})
}

// GetSessionHandler returns the current state snapshot.
func (h *ConciergeHandler) GetSessionHandler(c *gin.Context) {
	id := c.Param("sessionID")
	state, err := h.Service.Session(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, concierge.ErrSessionNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Session not found", id)
			return
		}
		utils.GetLogger().Error("Failed to load session", zap.String("session", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not load session", "")
		return
	}
	c.JSON(http.StatusOK, models.SessionSnapshot{ID: id, State: state})
}

// DeleteSessionHandler discards a session.
func (h *ConciergeHandler) DeleteSessionHandler(c *gin.Context) {
	id := c.Param("sessionID")
	if err := h.Service.EndSession(c.Request.Context(), id); err != nil {
		utils.GetLogger().Error("Failed to end session", zap.String("session", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not end session", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// TurnHandler processes one user turn against the session.
func (h *ConciergeHandler) TurnHandler(c *gin.Context) {
	logger := utils.GetLogger()
	id := c.Param("sessionID")

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid turn request", zap.String("session", id), zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	resp, err := h.Service.ProcessTurn(c.Request.Context(), id, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, concierge.ErrSessionNotFound):
			utils.JSONError(c, http.StatusNotFound, "Session not found", id)
		case errors.Is(err, concierge.ErrTurnInFlight):
			utils.JSONError(c, http.StatusConflict, "A turn is already being processed", "retry when it completes")
		default:
			logger.Error("Turn processing failed", zap.String("session", id), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Could not process turn", "")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// File: handlers/assistant.go
package handlers

import (
	"net/http"
	"strings"

	"planora/services/concierge"
	"planora/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AskRequest carries an open-ended travel question, answered statelessly.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse returns the plain-text answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// NoteRequest carries free text the frontend wants acknowledged.
type NoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// AssistantHandler serves the two stateless endpoints outside the session
// engine: open questions and note acknowledgements.
type AssistantHandler struct {
	Service concierge.ConciergeService
}

func NewAssistantHandler(svc concierge.ConciergeService) *AssistantHandler {
	return &AssistantHandler{Service: svc}
}

// AskHandler proxies an open-ended travel question to the completion boundary
// and returns its plain-text answer. No itinerary state is read or written.
func (h *AssistantHandler) AskHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid ask request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	answer, err := h.Service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		logger.Error("Ask request failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Assistant unavailable", "please try again later")
		return
	}

	c.JSON(http.StatusOK, AskResponse{Answer: strings.TrimSpace(answer)})
}

// NoteHandler acknowledges posted text with a fixed reply.
func (h *AssistantHandler) NoteHandler(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "noted"})
}

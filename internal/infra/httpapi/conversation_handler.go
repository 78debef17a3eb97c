package httpapi

import (
	"errors"
	"net/http"

	"phq9_screening_bot/internal/app"
	"phq9_screening_bot/internal/domain/dialogue"
	"phq9_screening_bot/internal/domain/screening"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConversationResponse struct {
	ConversationID string             `json:"conversation_id"`
	Messages       []dialogue.Message `json:"messages"`
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

type ConversationHandler struct {
	conversations *app.ConversationService
	logger        *logrus.Entry
}

func NewConversationHandler(conversations *app.ConversationService, logger *logrus.Entry) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, logger: logger.WithField("handler_group", "http_conversation")}
}

// ConversationID namespaces web chat conversations within the session store.
func ConversationID(id string) string {
	return "web:" + id
}

// Create opens a new conversation and returns its id with the greeting.
// POST /api/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	id := uuid.NewString()
	msgs, err := h.conversations.Start(c.Request.Context(), ConversationID(id))
	if err != nil {
		h.logger.WithError(err).Error("Failed to start conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not start conversation"})
		return
	}
	c.JSON(http.StatusCreated, ConversationResponse{ConversationID: id, Messages: nonNil(msgs)})
}

// PostMessage delivers one user message to a conversation created by Create
// and returns the bot replies. Unknown conversations get 404.
// POST /api/conversations/:id/messages
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	msgs, err := h.conversations.ContinueConversation(c.Request.Context(), ConversationID(id), req.Text)
	if errors.Is(err, screening.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", id).Error("Failed to handle message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not process message"})
		return
	}
	c.JSON(http.StatusOK, ConversationResponse{ConversationID: id, Messages: nonNil(msgs)})
}

func nonNil(msgs []dialogue.Message) []dialogue.Message {
	if msgs == nil {
		return []dialogue.Message{}
	}
	return msgs
}

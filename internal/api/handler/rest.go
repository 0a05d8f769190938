package handler

import (
	"errors"
	"net/http"

	"mentorchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health is the root liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "Chat service is running!")
}

// ListChats returns the chat summaries for a party, newest activity
// first. A party with no chats gets an empty list, not an error.
func (h *Handler) ListChats(c *gin.Context) {
	partyID := c.Param("partyID")

	summaries, err := h.Storage.ListChatSummaries(partyID)
	if err != nil {
		h.Log.WithError(err).WithField("party_id", partyID).Error("failed to list chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chats"})
		return
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// ChatHistory flips the caller's unread messages to read and returns
// the full ascending history, both in one transaction. The caller
// identifies itself with the party_id query parameter.
func (h *Handler) ChatHistory(c *gin.Context) {
	chatID := c.Param("chatID")
	readerID := c.Query("party_id")
	if readerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "party_id query parameter is required"})
		return
	}

	chat, err := h.Storage.GetChatByID(chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("chat_id", chatID).Error("failed to load chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	if chat.PartyA != readerID && chat.PartyB != readerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant in this chat"})
		return
	}

	history, err := h.Storage.MarkReadAndFetch(chatID, readerID)
	if err != nil {
		h.Log.WithError(err).WithField("chat_id", chatID).Error("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	c.JSON(http.StatusOK, history)
}

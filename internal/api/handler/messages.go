package handler

import (
	"errors"
	"net/http"
	"strconv"

	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

// ListConversations returns one summary per counterpart, newest first.
func (h *Handler) ListConversations(c *gin.Context) {
	summaries, err := h.Storage.ListConversations(currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": summaries})
}

// GetConversation returns one page of the history with another user, oldest
// first within the page. Fetching a page marks the counterpart's messages to
// the requester as read.
func (h *Handler) GetConversation(c *gin.Context) {
	user := currentUser(c)
	otherUserID := c.Param("userId")

	otherUser, err := h.Storage.GetUserByID(otherUserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load conversation"})
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", defaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	messages, hasMore, err := h.Storage.GetConversation(user.ID, otherUserID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"otherUser": otherUser.Public(),
		"messages":  messages,
		"page":      page,
		"hasMore":   hasMore,
	})
}

type sendMessageRequest struct {
	ReceiverID    string `json:"receiverId" binding:"required"`
	Content       string `json:"content" binding:"required"`
	MessageType   string `json:"messageType"`
	MediaURL      string `json:"mediaUrl"`
	GifID         string `json:"gifId"`
	MediaDuration int    `json:"mediaDuration"`
}

// SendMessage persists a message and then hands it to the hub for a
// best-effort live delivery. Persistence comes first: even when the receiver
// is offline the message shows up on their next fetch.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "receiverId and content are required"})
		return
	}

	if _, err := h.Storage.GetUserByID(req.ReceiverID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "receiver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to send message"})
		return
	}

	sender := currentUser(c)
	msg := &models.Message{
		SenderID:      sender.ID,
		ReceiverID:    req.ReceiverID,
		Content:       req.Content,
		Type:          req.MessageType,
		MediaURL:      req.MediaURL,
		GifID:         req.GifID,
		MediaDuration: req.MediaDuration,
	}
	if err := h.Storage.SaveMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to send message"})
		return
	}

	if msg.Type == "image" && msg.MediaURL != "" {
		if err := h.Storage.SaveMediaFile(&models.MediaFile{
			MessageID: msg.ID,
			FilePath:  msg.MediaURL,
			FileType:  "image",
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to send message"})
			return
		}
	}

	if h.Hub != nil {
		h.Hub.Deliver(models.Event{
			Event:       models.EventSendMessage,
			ID:          msg.ID,
			SenderID:    msg.SenderID,
			ReceiverID:  msg.ReceiverID,
			Content:     msg.Content,
			MessageType: msg.Type,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

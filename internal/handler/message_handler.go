package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manumay1962/CHAT-APP/internal/middleware"
	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/manumay1962/CHAT-APP/internal/repo"
	"github.com/manumay1962/CHAT-APP/internal/service"
	"github.com/manumay1962/CHAT-APP/internal/uploader"
	"go.uber.org/zap"
)

type MessageHandler interface {
	GetUsersForSidebar(c *gin.Context)
	GetMessages(c *gin.Context)
	MarkMessageSeen(c *gin.Context)
	SendMessage(c *gin.Context)
}

type messageHandler struct {
	messages service.MessageService
	users    service.UserService
	logger   *zap.Logger
}

func NewMessageHandler(messages service.MessageService, users service.UserService, logger *zap.Logger) MessageHandler {
	return &messageHandler{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// GetUsersForSidebar returns every other user plus per-peer unseen
// message counts for the current user.
func (h *messageHandler) GetUsersForSidebar(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	peers, err := h.users.ListPeers(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"users":          peers.Users,
		"unseenMessages": peers.UnseenMessages,
	})
}

// GetMessages returns the thread with the peer named in the path and
// bulk-marks the peer's messages to the current user as seen.
func (h *messageHandler) GetMessages(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	peerID := c.Param("id")

	messages, err := h.messages.GetThread(c.Request.Context(), userID, peerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if messages == nil {
		messages = []model.Message{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": messages,
	})
}

func (h *messageHandler) MarkMessageSeen(c *gin.Context) {
	if err := h.messages.MarkSeen(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *messageHandler) SendMessage(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	receiverID := c.Param("id")

	var in service.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), userID, receiverID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newMessage": msg,
	})
}

// respondError maps service failures onto the uniform error envelope.
// Nothing propagates raw: an unexpected error becomes a logged 500.
func (h *messageHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrMessageNotFound), errors.Is(err, repo.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidReceiver):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, uploader.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "image upload failed"})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
	}
}

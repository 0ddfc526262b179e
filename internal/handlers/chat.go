// internal/handlers/chat.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// POST /api/chats
func (h *ChatHandler) OpenChat(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.OpenChatRequest
	if !bindJSON(c, &req) {
		return
	}

	chat, err := h.chatService.OpenChat(caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyChatOpened),
		"chat":    chat,
	})
}

// GET /api/chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	chats, err := h.chatService.ListChats(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"chats": chats})
}

// GET /api/chats/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	chatID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(caller, chatID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"messages": messages})
}

// POST /api/chats/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	chatID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(caller, chatID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyChatMessageSent),
		"chat_message": msg,
	})
}

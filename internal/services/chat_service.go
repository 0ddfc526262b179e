// internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/database"
	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/utils"
)

var errChatThreadNotFound = errors.New("chat thread not found")

type ChatService struct {
	db *gorm.DB
}

type OpenChatRequest struct {
	AdID uint `json:"adId" validate:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// OpenChat returns the caller's thread with the owner of the ad, creating it
// on first use.
func (s *ChatService) OpenChat(caller *models.Caller, req *OpenChatRequest) (*models.Chat, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	var ad models.Ad
	if err := s.db.First(&ad, req.AdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to load ad: %w", err)
	}
	if ad.UserID == caller.UserID {
		return nil, ErrSelfChatNotAllowed
	}

	chat := models.Chat{AdID: ad.ID, BuyerID: caller.UserID, SellerID: ad.UserID}
	if err := s.db.Where(&chat).FirstOrCreate(&chat).Error; err != nil {
		return nil, fmt.Errorf("failed to open chat: %w", err)
	}
	return &chat, nil
}

func (s *ChatService) ListChats(caller *models.Caller) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.Preload("Ad").
		Where("buyer_id = ? OR seller_id = ?", caller.UserID, caller.UserID).
		Order("updated_at DESC").Order("id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

func (s *ChatService) getParticipantChat(caller *models.Caller, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if !chat.HasParticipant(caller.UserID) && !caller.IsAdmin() {
		return nil, ErrChatNotFound
	}
	return &chat, nil
}

func (s *ChatService) ListMessages(caller *models.Caller, chatID uint) ([]models.Message, error) {
	chat, err := s.getParticipantChat(caller, chatID)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := s.db.Where("chat_id = ?", chat.ID).Order("created_at ASC").Order("id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *ChatService) SendMessage(caller *models.Caller, chatID uint, req *SendMessageRequest) (*models.Message, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	chat, err := s.getParticipantChat(caller, chatID)
	if err != nil {
		return nil, err
	}

	senderID := caller.UserID
	msg := &models.Message{ChatID: chat.ID, SenderID: &senderID, Body: req.Body}
	if err := s.appendMessage(s.db, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FindThread looks up the chat for one ad between buyer and seller.
func (s *ChatService) FindThread(ctx context.Context, adID, buyerID, sellerID uint) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Where("ad_id = ? AND buyer_id = ? AND seller_id = ?", adID, buyerID, sellerID).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errChatThreadNotFound
		}
		return nil, fmt.Errorf("failed to find chat thread: %w", err)
	}
	return &chat, nil
}

// PostSystemMessage appends a message without a sender.
func (s *ChatService) PostSystemMessage(ctx context.Context, chatID uint, body string) error {
	return s.appendMessage(s.db.WithContext(ctx), &models.Message{ChatID: chatID, IsSystem: true, Body: body})
}

func (s *ChatService) appendMessage(db *gorm.DB, msg *models.Message) error {
	return database.WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		now := time.Now()
		if err := tx.Model(&models.Chat{}).Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{"last_message_at": now, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to touch chat: %w", err)
		}
		return nil
	})
}

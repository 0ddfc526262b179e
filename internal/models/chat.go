// internal/models/chat.go
package models

import "time"

// Chat is the thread between a buyer and the seller of one ad.
type Chat struct {
	BaseModel
	AdID          uint       `json:"ad_id" gorm:"not null;uniqueIndex:idx_chats_thread"`
	BuyerID       uint       `json:"buyer_id" gorm:"not null;uniqueIndex:idx_chats_thread"`
	SellerID      uint       `json:"seller_id" gorm:"not null;uniqueIndex:idx_chats_thread"`
	LastMessageAt *time.Time `json:"last_message_at"`

	// Relationships
	Ad     *Ad   `json:"ad,omitempty" gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE"`
	Buyer  *User `json:"-" gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
	Seller *User `json:"-" gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
}

func (c *Chat) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ChatID    uint      `json:"chat_id" gorm:"not null;index"`
	SenderID  *uint     `json:"sender_id"`
	IsSystem  bool      `json:"is_system" gorm:"default:false"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Chat *Chat `json:"-" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

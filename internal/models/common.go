// internal/models/common.go
package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StringList is stored as a native text[] on PostgreSQL and as the array
// literal text elsewhere. Both use the pq array codec.
type StringList []string

func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (s StringList) Value() (driver.Value, error) {
	return pq.StringArray(s).Value()
}

func (s *StringList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*s = StringList(arr)
	return nil
}

// Enums
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformOther     Platform = "other"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram, PlatformOther:
		return true
	}
	return false
}

type AdStatus string

const (
	AdStatusActive   AdStatus = "active"
	AdStatusSold     AdStatus = "sold"
	AdStatusInactive AdStatus = "inactive"
)

type DealStatus string

const (
	DealStatusPending      DealStatus = "pending"
	DealStatusSellerAgreed DealStatus = "seller_agreed"
	DealStatusInProgress   DealStatus = "in_progress"
	DealStatusCompleted    DealStatus = "completed"
	DealStatusCancelled    DealStatus = "cancelled"
	DealStatusDisputed     DealStatus = "disputed"
)

type TransactionType string

const (
	TransactionTypeSafest  TransactionType = "safest"
	TransactionTypeFastest TransactionType = "fastest"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeSafest || t == TransactionTypeFastest
}

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// internal/models/notification.go
package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DealNotification is an outbox row. One row exists per (deal, event).
type DealNotification struct {
	BaseModel
	DealID         uint               `json:"deal_id" gorm:"not null;index"`
	EventType      DealAction         `json:"event_type" gorm:"type:varchar(50);not null"`
	IdempotencyKey string             `json:"idempotency_key" gorm:"size:100;not null;uniqueIndex"`
	Payload        datatypes.JSONMap  `json:"payload"`
	Status         NotificationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_deal_notifications_due,priority:1"`
	Attempts       int                `json:"attempts" gorm:"not null;default:0"`
	LastError      string             `json:"last_error,omitempty" gorm:"type:text"`
	NextAttemptAt  time.Time          `json:"next_attempt_at" gorm:"index:idx_deal_notifications_due,priority:2"`
	DeliveredAt    *time.Time         `json:"delivered_at"`
}

func NotificationKey(dealID uint, event DealAction) string {
	return fmt.Sprintf("%d:%s", dealID, event)
}

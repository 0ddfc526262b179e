// internal/models/admin.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	UserID       *uint             `json:"user_id" gorm:"index"`
	Action       string            `json:"action" gorm:"size:100;not null;index"`
	ResourceType string            `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uint             `json:"resource_id" gorm:"index"`
	NewValues    datatypes.JSONMap `json:"new_values"`
	IPAddress    string            `json:"ip_address" gorm:"size:45"`
	UserAgent    string            `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time         `json:"created_at"`
}

// DealHistory is the append-only trail of deal state changes.
type DealHistory struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	DealID            uint              `json:"deal_id" gorm:"not null;index"`
	ActionType        DealAction        `json:"action_type" gorm:"type:varchar(50);not null"`
	ActionBy          uint              `json:"action_by" gorm:"not null"`
	ActionDescription string            `json:"action_description" gorm:"type:text"`
	FromStage         WorkflowStage     `json:"from_stage" gorm:"type:varchar(40)"`
	ToStage           WorkflowStage     `json:"to_stage" gorm:"type:varchar(40)"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`

	Deal *Deal `json:"-" gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
}

func (DealHistory) TableName() string {
	return "deal_history"
}

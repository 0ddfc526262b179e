// internal/models/ad.go
package models

import "github.com/shopspring/decimal"

type Ad struct {
	BaseModel
	UserID      uint            `json:"user_id" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Platform    Platform        `json:"platform" gorm:"type:varchar(20);not null;default:'youtube'"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Subscribers int64           `json:"subscribers"`
	Tags        StringList      `json:"tags"`
	Status      AdStatus        `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Owner *User `json:"owner,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

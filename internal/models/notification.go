package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message delivered to a user. Dispatch is
// fire-and-forget from the caller's perspective.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FromUserID  *uuid.UUID `gorm:"type:uuid" json:"fromUserId,omitempty"`
	ToUserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"toUserId"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Read        bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	Delivered   bool       `gorm:"not null;default:false" json:"delivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"fromUser,omitempty"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

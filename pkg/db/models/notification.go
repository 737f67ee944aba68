package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

// Notification is an in-app inbox entry addressed to a single user.
type Notification struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type              enums.NotificationType     `gorm:"column:type;type:notification_type;not null" json:"type"`
	Title             string                     `gorm:"column:title;type:text;not null" json:"title"`
	Message           string                     `gorm:"column:message;type:text;not null" json:"message"`
	RelatedEntityType *string                    `gorm:"column:related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID                 `gorm:"column:related_entity_id;type:uuid" json:"related_entity_id,omitempty"`
	Priority          enums.NotificationPriority `gorm:"column:priority;type:notification_priority;not null;default:medium" json:"priority"`
	ReadAt            *time.Time                 `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	TypeFault       NotificationType = "fault"
	TypeMaintenance NotificationType = "maintenance"
	TypePurchase    NotificationType = "purchase"
	TypeWarning     NotificationType = "warning"
	TypeInfo        NotificationType = "info"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is a stored message for a user or a customer contact.
type Notification struct {
	ID                  snowflake.ID         `gorm:"primaryKey" json:"id"`
	Message             string               `json:"message"`
	Type                NotificationType     `json:"type"`
	Priority            NotificationPriority `json:"priority"`
	RecipientUserID     *snowflake.ID        `gorm:"index" json:"recipient_user_id,omitempty"`
	RecipientCustomerID *snowflake.ID        `gorm:"index" json:"recipient_customer_id,omitempty"`
	RelatedEntityType   string               `json:"related_entity_type,omitempty"`
	RelatedEntityID     *snowflake.ID        `json:"related_entity_id,omitempty"`
	TriggerEvent        string               `json:"trigger_event,omitempty"`
	Read                bool                 `json:"read"`
	AdditionalData      datatypes.JSON       `json:"additional_data,omitempty"`
	SentAt              time.Time            `json:"sent_at"`
	CreatedAt           time.Time            `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

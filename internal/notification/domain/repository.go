package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type NotificationFilter struct {
	RecipientUserID     snowflake.ID
	RecipientCustomerID snowflake.ID
	UnreadOnly          bool
	AfterID             snowflake.ID
	Limit               int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notifications []Notification) error
	List(ctx context.Context, db *gorm.DB, filter NotificationFilter) ([]Notification, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID) error
	CountUnread(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
}

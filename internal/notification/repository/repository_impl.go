package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&notifications).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.NotificationFilter) ([]domain.Notification, error) {
	query := db.WithContext(ctx).Model(&domain.Notification{})
	if filter.RecipientUserID != 0 {
		query = query.Where("recipient_user_id = ?", filter.RecipientUserID)
	}
	if filter.RecipientCustomerID != 0 {
		query = query.Where("recipient_customer_id = ?", filter.RecipientCustomerID)
	}
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.AfterID != 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var notifications []domain.Notification
	if err := query.Order("id ASC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Notification, error) {
	var notification domain.Notification
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&notification).Error
	if err != nil {
		return nil, err
	}
	if notification.ID == 0 {
		return nil, nil
	}
	return &notification, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

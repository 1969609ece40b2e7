package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.FridgeRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FridgeRequest, error) {
	var request domain.FridgeRequest
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.FridgeRequest, error) {
	var request domain.FridgeRequest
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) FindPendingByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (*domain.FridgeRequest, error) {
	var request domain.FridgeRequest
	err := db.WithContext(ctx).
		Where("customer_id = ? AND status = ? AND request_date >= ?",
			customerID, domain.StatusPending, since).
		Limit(1).
		Find(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, request *domain.FridgeRequest) error {
	return db.WithContext(ctx).Save(request).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.RequestFilter) ([]domain.FridgeRequest, error) {
	query := db.WithContext(ctx).Model(&domain.FridgeRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.AfterID != 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var requests []domain.FridgeRequest
	if err := query.Order("id ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.FridgeRequest, error) {
	query := db.WithContext(ctx).
		Where("status = ? AND request_date < ?", domain.StatusPending, before).
		Order("request_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var requests []domain.FridgeRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	"github.com/smallbiznis/coldchain/internal/inventory/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.PurchaseRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
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

func (r *repo) FindPendingAutoForUpdate(ctx context.Context, tx *gorm.DB) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND auto = ?", domain.StatusPending, true).
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

func (r *repo) Save(ctx context.Context, db *gorm.DB, request *domain.PurchaseRequest) error {
	return db.WithContext(ctx).Save(request).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.RequestFilter) ([]domain.PurchaseRequest, error) {
	query := db.WithContext(ctx).Model(&domain.PurchaseRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Auto != nil {
		query = query.Where("auto = ?", *filter.Auto)
	}
	if filter.AfterID != 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var requests []domain.PurchaseRequest
	if err := query.Order("id ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repo) CountAvailableEquipment(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&equipmentdomain.Equipment{}).
		Where("status = ?", equipmentdomain.StatusAvailable).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

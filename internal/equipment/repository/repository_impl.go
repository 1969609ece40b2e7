package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/equipment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&equipment).Error
	if err != nil {
		return nil, err
	}
	if equipment.ID == 0 {
		return nil, nil
	}
	return &equipment, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&equipment).Error
	if err != nil {
		return nil, err
	}
	if equipment.ID == 0 {
		return nil, nil
	}
	return &equipment, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, equipment *domain.Equipment) error {
	return db.WithContext(ctx).Create(equipment).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, equipment *domain.Equipment) error {
	return db.WithContext(ctx).Save(equipment).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	query := db.WithContext(ctx).Model(&domain.Equipment{})
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

	var equipment []domain.Equipment
	if err := query.Order("id ASC").Find(&equipment).Error; err != nil {
		return nil, err
	}
	return equipment, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

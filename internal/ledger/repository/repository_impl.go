package repository

import (
	"context"

	"github.com/smallbiznis/coldchain/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AllocationEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.EntryFilter) ([]domain.AllocationEntry, error) {
	query := db.WithContext(ctx).Model(&domain.AllocationEntry{})
	if filter.EquipmentID != 0 {
		query = query.Where("equipment_id = ?", filter.EquipmentID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.AfterID != 0 {
		query = query.Where("action_date > ? OR (action_date = ? AND id > ?)",
			filter.AfterActionDate, filter.AfterActionDate, filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []domain.AllocationEntry
	if err := query.Order("action_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

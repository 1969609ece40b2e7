package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/maintenance/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.MaintenanceRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MaintenanceRecord, error) {
	var record domain.MaintenanceRecord
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.MaintenanceRecord, error) {
	var record domain.MaintenanceRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) CountTechnicianConflicts(ctx context.Context, db *gorm.DB, technicianID snowflake.ID, from, to time.Time, excludeID snowflake.ID) (int64, error) {
	query := db.WithContext(ctx).
		Model(&domain.MaintenanceRecord{}).
		Where("technician_id = ? AND status = ? AND scheduled_date BETWEEN ? AND ?",
			technicianID, domain.StatusScheduled, from, to)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, record *domain.MaintenanceRecord) error {
	return db.WithContext(ctx).Save(record).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.RecordFilter) ([]domain.MaintenanceRecord, error) {
	query := db.WithContext(ctx).Model(&domain.MaintenanceRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EquipmentID != 0 {
		query = query.Where("equipment_id = ?", filter.EquipmentID)
	}
	if filter.TechnicianID != 0 {
		query = query.Where("technician_id = ?", filter.TechnicianID)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_date <= ?", *filter.To)
	}
	if filter.AfterID != 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []domain.MaintenanceRecord
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.MaintenanceRecord, error) {
	query := db.WithContext(ctx).
		Where("status = ? AND scheduled_date < ?", domain.StatusScheduled, before).
		Order("scheduled_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []domain.MaintenanceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *domain.ServiceHistoryEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, equipmentID snowflake.ID) ([]domain.ServiceHistoryEntry, error) {
	var entries []domain.ServiceHistoryEntry
	err := db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("service_date ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

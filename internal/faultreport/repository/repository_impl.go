package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/faultreport/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, report *domain.FaultReport) error {
	return db.WithContext(ctx).Create(report).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FaultReport, error) {
	var report domain.FaultReport
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == 0 {
		return nil, nil
	}
	return &report, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.FaultReport, error) {
	var report domain.FaultReport
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == 0 {
		return nil, nil
	}
	return &report, nil
}

func (r *repo) FindActiveByEquipment(ctx context.Context, db *gorm.DB, equipmentID snowflake.ID) (*domain.FaultReport, error) {
	var report domain.FaultReport
	err := db.WithContext(ctx).
		Where("equipment_id = ? AND status NOT IN ?", equipmentID,
			[]domain.Status{domain.StatusResolved, domain.StatusClosed}).
		Limit(1).
		Find(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == 0 {
		return nil, nil
	}
	return &report, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, report *domain.FaultReport) error {
	return db.WithContext(ctx).Save(report).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ReportFilter) ([]domain.FaultReport, error) {
	query := db.WithContext(ctx).Model(&domain.FaultReport{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EquipmentID != 0 {
		query = query.Where("equipment_id = ?", filter.EquipmentID)
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

	var reports []domain.FaultReport
	if err := query.Order("id ASC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.FaultReport, error) {
	query := db.WithContext(ctx).
		Where("status IN ? AND date_reported < ?",
			[]domain.Status{domain.StatusReported, domain.StatusDiagnosed}, before).
		Order("date_reported ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []domain.FaultReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

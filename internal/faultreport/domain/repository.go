package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ReportFilter struct {
	Status      Status
	EquipmentID snowflake.ID
	CustomerID  snowflake.ID
	AfterID     snowflake.ID
	Limit       int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, report *FaultReport) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FaultReport, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*FaultReport, error)
	// FindActiveByEquipment returns the open (non-terminal) report for
	// the unit, if one exists.
	FindActiveByEquipment(ctx context.Context, db *gorm.DB, equipmentID snowflake.ID) (*FaultReport, error)
	Save(ctx context.Context, db *gorm.DB, report *FaultReport) error
	List(ctx context.Context, db *gorm.DB, filter ReportFilter) ([]FaultReport, error)
	// ListOverdue returns reports still in reported/diagnosed whose
	// DateReported is before the cutoff.
	ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]FaultReport, error)
}

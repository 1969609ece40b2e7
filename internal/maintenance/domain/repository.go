package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RecordFilter struct {
	Status       Status
	EquipmentID  snowflake.ID
	TechnicianID snowflake.ID
	From         *time.Time
	To           *time.Time
	AfterID      snowflake.ID
	Limit        int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *MaintenanceRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MaintenanceRecord, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*MaintenanceRecord, error)
	// CountTechnicianConflicts counts scheduled records for the
	// technician inside the booking window, excluding excludeID.
	CountTechnicianConflicts(ctx context.Context, db *gorm.DB, technicianID snowflake.ID, from, to time.Time, excludeID snowflake.ID) (int64, error)
	Save(ctx context.Context, db *gorm.DB, record *MaintenanceRecord) error
	List(ctx context.Context, db *gorm.DB, filter RecordFilter) ([]MaintenanceRecord, error)
	// ListOverdue returns scheduled records whose date has passed.
	ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]MaintenanceRecord, error)
	InsertHistory(ctx context.Context, db *gorm.DB, entry *ServiceHistoryEntry) error
	ListHistory(ctx context.Context, db *gorm.DB, equipmentID snowflake.ID) ([]ServiceHistoryEntry, error)
}

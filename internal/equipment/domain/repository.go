package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EquipmentFilter struct {
	Status     Status
	CustomerID snowflake.ID
	AfterID    snowflake.ID
	Limit      int
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Equipment, error)
	// FindByIDForUpdate locks the row for the remainder of the
	// transaction. Callers must hold an open transaction.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Equipment, error)
	Create(ctx context.Context, db *gorm.DB, equipment *Equipment) error
	Save(ctx context.Context, db *gorm.DB, equipment *Equipment) error
	List(ctx context.Context, db *gorm.DB, filter EquipmentFilter) ([]Equipment, error)
	CountByStatus(ctx context.Context, db *gorm.DB, status Status) (int64, error)
}

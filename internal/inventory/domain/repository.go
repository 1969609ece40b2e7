package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RequestFilter struct {
	Status  RequestStatus
	Auto    *bool
	AfterID snowflake.ID
	Limit   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *PurchaseRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PurchaseRequest, error)
	// FindPendingAutoForUpdate locks any pending auto request so two
	// concurrent restock checks serialize on it. Callers must hold an
	// open transaction.
	FindPendingAutoForUpdate(ctx context.Context, tx *gorm.DB) (*PurchaseRequest, error)
	Save(ctx context.Context, db *gorm.DB, request *PurchaseRequest) error
	List(ctx context.Context, db *gorm.DB, filter RequestFilter) ([]PurchaseRequest, error)
	CountAvailableEquipment(ctx context.Context, db *gorm.DB) (int64, error)
}

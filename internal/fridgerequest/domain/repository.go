package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RequestFilter struct {
	Status     Status
	CustomerID snowflake.ID
	AfterID    snowflake.ID
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *FridgeRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FridgeRequest, error)
	// FindByIDForUpdate locks the row for the remainder of the
	// transaction. Callers must hold an open transaction.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*FridgeRequest, error)
	// FindPendingByCustomer returns any pending request the customer
	// raised at or after since.
	FindPendingByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (*FridgeRequest, error)
	Save(ctx context.Context, db *gorm.DB, request *FridgeRequest) error
	List(ctx context.Context, db *gorm.DB, filter RequestFilter) ([]FridgeRequest, error)
	ListOverdue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]FridgeRequest, error)
}

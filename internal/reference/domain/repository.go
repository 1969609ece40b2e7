package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CustomerExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	SupplierExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
}

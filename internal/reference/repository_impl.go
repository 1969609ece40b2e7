package reference

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/reference/domain"
	"gorm.io/gorm"
)

type repo struct{}

func NewRepository() domain.Repository {
	return &repo{}
}

func (r *repo) CustomerExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var row struct {
		ID snowflake.ID `gorm:"column:id"`
	}
	err := db.WithContext(ctx).
		Raw(`SELECT id FROM customers WHERE id = ? AND active = ? LIMIT 1`, id, true).
		Scan(&row).Error
	if err != nil {
		return false, err
	}
	return row.ID != 0, nil
}

func (r *repo) SupplierExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var row struct {
		ID snowflake.ID `gorm:"column:id"`
	}
	err := db.WithContext(ctx).
		Raw(`SELECT id FROM suppliers WHERE id = ? AND active = ? LIMIT 1`, id, true).
		Scan(&row).Error
	if err != nil {
		return false, err
	}
	return row.ID != 0, nil
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Raw(`SELECT id, business_name, contact_email, active, created_at
		     FROM customers WHERE id = ?`, id).
		Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

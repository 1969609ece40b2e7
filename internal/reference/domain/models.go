package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is read-only reference data owned by an external system.
type Customer struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	BusinessName string       `json:"business_name"`
	ContactEmail string       `json:"contact_email"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Supplier is read-only reference data owned by an external system.
type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `json:"name"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is a read-only row mirrored from the external identity provider.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

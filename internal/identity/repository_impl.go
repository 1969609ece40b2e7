package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func NewRepository() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).
		Raw(`SELECT id, name, email, role, active, created_at
		     FROM users WHERE id = ?`, id).
		Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) ListByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.User, error) {
	var users []domain.User
	err := db.WithContext(ctx).
		Raw(`SELECT id, name, email, role, active, created_at
		     FROM users WHERE role = ? AND active = ? ORDER BY id`, role, true).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

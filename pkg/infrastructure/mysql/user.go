package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

type userRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	IsStaff   bool      `db:"is_staff"`
	Credit    int       `db:"credit"`
	Version   int       `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

type userRepository struct {
	db sqlx.ExtContext
}

func (r *userRepository) Find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(ctx, `SELECT id, name, is_staff, credit, version, updated_at FROM users WHERE id = ?`, id)
}

func (r *userRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(ctx, `SELECT id, name, is_staff, credit, version, updated_at FROM users WHERE id = ? FOR UPDATE`, id)
}

func (r *userRepository) find(ctx context.Context, query string, id uuid.UUID) (*model.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, translate(err, "find user", model.ErrUserNotFound, nil)
	}
	return &model.User{
		ID:        row.ID,
		Name:      row.Name,
		IsStaff:   row.IsStaff,
		Credit:    row.Credit,
		Version:   row.Version,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Update writes the credit score only; profile fields belong to the user directory.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET credit = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?`,
		u.Credit, u.Version, u.UpdatedAt, u.ID, u.Version-1,
	)
	if err != nil {
		return translate(err, "update user", nil, nil)
	}
	return expectOneRow(result, "update user")
}

package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

const productColumns = `id, owner_id, name, price_cents, quantity, status, version, created_at, updated_at`

type productRow struct {
	ID         uuid.UUID `db:"id"`
	OwnerID    uuid.UUID `db:"owner_id"`
	Name       string    `db:"name"`
	PriceCents int64     `db:"price_cents"`
	Quantity   int       `db:"quantity"`
	Status     int       `db:"status"`
	Version    int       `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r productRow) toModel() *model.Product {
	return &model.Product{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Name:       r.Name,
		PriceCents: r.PriceCents,
		Quantity:   r.Quantity,
		Status:     model.ProductStatus(r.Status),
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type productRepository struct {
	db sqlx.ExtContext
}

func (r *productRepository) Find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

func (r *productRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id)
}

func (r *productRepository) find(ctx context.Context, query string, id uuid.UUID) (*model.Product, error) {
	var row productRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, translate(err, "find product", model.ErrProductNotFound, nil)
	}
	return row.toModel(), nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET quantity = ?, status = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?`,
		p.Quantity, int(p.Status), p.Version, p.UpdatedAt, p.ID, p.Version-1,
	)
	if err != nil {
		return translate(err, "update product", nil, nil)
	}
	return expectOneRow(result, "update product")
}

package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

const orderColumns = `id, buyer_id, seller_id, product_id, quantity, total_cents, trade_time, trade_location,
	status, stock_committed, return_state, cancel_reason, cancelled_by, version,
	created_at, updated_at, completed_at, cancelled_at`

type orderRow struct {
	ID             uuid.UUID     `db:"id"`
	BuyerID        uuid.UUID     `db:"buyer_id"`
	SellerID       uuid.UUID     `db:"seller_id"`
	ProductID      uuid.UUID     `db:"product_id"`
	Quantity       int           `db:"quantity"`
	TotalCents     int64         `db:"total_cents"`
	TradeTime      time.Time     `db:"trade_time"`
	TradeLocation  string        `db:"trade_location"`
	Status         int           `db:"status"`
	StockCommitted bool          `db:"stock_committed"`
	ReturnState    int           `db:"return_state"`
	CancelReason   string        `db:"cancel_reason"`
	CancelledBy    uuid.NullUUID `db:"cancelled_by"`
	Version        int           `db:"version"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	CompletedAt    sql.NullTime  `db:"completed_at"`
	CancelledAt    sql.NullTime  `db:"cancelled_at"`
}

func newOrderRow(o *model.Order) orderRow {
	row := orderRow{
		ID:             o.ID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		ProductID:      o.ProductID,
		Quantity:       o.Quantity,
		TotalCents:     o.TotalCents,
		TradeTime:      o.TradeTime,
		TradeLocation:  o.TradeLocation,
		Status:         int(o.Status),
		StockCommitted: o.StockCommitted,
		ReturnState:    int(o.ReturnState),
		CancelReason:   o.CancelReason,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.CancelledBy != nil {
		row.CancelledBy = uuid.NullUUID{UUID: *o.CancelledBy, Valid: true}
	}
	if o.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *o.CompletedAt, Valid: true}
	}
	if o.CancelledAt != nil {
		row.CancelledAt = sql.NullTime{Time: *o.CancelledAt, Valid: true}
	}
	return row
}

func (r orderRow) toModel() *model.Order {
	o := &model.Order{
		ID:             r.ID,
		BuyerID:        r.BuyerID,
		SellerID:       r.SellerID,
		ProductID:      r.ProductID,
		Quantity:       r.Quantity,
		TotalCents:     r.TotalCents,
		TradeTime:      r.TradeTime,
		TradeLocation:  r.TradeLocation,
		Status:         model.OrderStatus(r.Status),
		StockCommitted: r.StockCommitted,
		ReturnState:    model.ReturnState(r.ReturnState),
		CancelReason:   r.CancelReason,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.CancelledBy.Valid {
		id := r.CancelledBy.UUID
		o.CancelledBy = &id
	}
	if r.CompletedAt.Valid {
		o.CompletedAt = &r.CompletedAt.Time
	}
	if r.CancelledAt.Valid {
		o.CancelledAt = &r.CancelledAt.Time
	}
	return o
}

type orderRepository struct {
	db sqlx.ExtContext
}

func (r *orderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :buyer_id, :seller_id, :product_id, :quantity, :total_cents, :trade_time, :trade_location,
			:status, :stock_committed, :return_state, :cancel_reason, :cancelled_by, :version,
			:created_at, :updated_at, :completed_at, :cancelled_at)`,
		newOrderRow(o),
	)
	return translate(err, "create order", nil, nil)
}

func (r *orderRepository) Find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (r *orderRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id)
}

func (r *orderRepository) find(ctx context.Context, query string, id uuid.UUID) (*model.Order, error) {
	var row orderRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, translate(err, "find order", model.ErrOrderNotFound, nil)
	}
	return row.toModel(), nil
}

func (r *orderRepository) Update(ctx context.Context, o *model.Order) error {
	row := newOrderRow(o)
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, stock_committed = ?, return_state = ?, cancel_reason = ?, cancelled_by = ?,
			version = ?, updated_at = ?, completed_at = ?, cancelled_at = ?
		WHERE id = ? AND version = ?`,
		row.Status, row.StockCommitted, row.ReturnState, row.CancelReason, row.CancelledBy,
		row.Version, row.UpdatedAt, row.CompletedAt, row.CancelledAt,
		row.ID, row.Version-1,
	)
	if err != nil {
		return translate(err, "update order", nil, nil)
	}
	return expectOneRow(result, "update order")
}

func (r *orderRepository) List(ctx context.Context, q model.OrderQuery) ([]*model.Order, int, error) {
	query, err := buildOrderListQuery(q)
	if err != nil {
		return nil, 0, err
	}

	var rows []orderRow
	total, err := list(ctx, r.db, query, q.PageSize, q.Offset(), &rows)
	if err != nil {
		return nil, 0, translate(err, "list orders", nil, nil)
	}

	orders := make([]*model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
	}
	return orders, total, nil
}

func (r *orderRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.db, &ids,
		`SELECT id FROM orders WHERE status = ? AND created_at < ? ORDER BY created_at LIMIT ?`,
		int(model.PendingSellerConfirmation), createdBefore, limit,
	)
	if err != nil {
		return nil, translate(err, "find stale orders", nil, nil)
	}
	return ids, nil
}

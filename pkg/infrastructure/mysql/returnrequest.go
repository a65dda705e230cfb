package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

const returnRequestColumns = `id, order_id, buyer_id, seller_id, product_id, quantity, reason, reason_code, status,
	seller_acted_at, admin_acted_at, version, created_at, updated_at`

type returnRequestRow struct {
	ID            uuid.UUID    `db:"id"`
	OrderID       uuid.UUID    `db:"order_id"`
	BuyerID       uuid.UUID    `db:"buyer_id"`
	SellerID      uuid.UUID    `db:"seller_id"`
	ProductID     uuid.UUID    `db:"product_id"`
	Quantity      int          `db:"quantity"`
	Reason        string       `db:"reason"`
	ReasonCode    string       `db:"reason_code"`
	Status        int          `db:"status"`
	SellerActedAt sql.NullTime `db:"seller_acted_at"`
	AdminActedAt  sql.NullTime `db:"admin_acted_at"`
	Version       int          `db:"version"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

type resolutionEntryRow struct {
	ID              uuid.UUID `db:"id"`
	ReturnRequestID uuid.UUID `db:"return_request_id"`
	ActorID         uuid.UUID `db:"actor_id"`
	ActorRole       int       `db:"actor_role"`
	Action          int       `db:"action"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
}

func newReturnRequestRow(rr *model.ReturnRequest) returnRequestRow {
	row := returnRequestRow{
		ID:         rr.ID,
		OrderID:    rr.OrderID,
		BuyerID:    rr.BuyerID,
		SellerID:   rr.SellerID,
		ProductID:  rr.ProductID,
		Quantity:   rr.Quantity,
		Reason:     rr.Reason,
		ReasonCode: string(rr.ReasonCode),
		Status:     int(rr.Status),
		Version:    rr.Version,
		CreatedAt:  rr.CreatedAt,
		UpdatedAt:  rr.UpdatedAt,
	}
	if rr.SellerActedAt != nil {
		row.SellerActedAt = sql.NullTime{Time: *rr.SellerActedAt, Valid: true}
	}
	if rr.AdminActedAt != nil {
		row.AdminActedAt = sql.NullTime{Time: *rr.AdminActedAt, Valid: true}
	}
	return row
}

func (r returnRequestRow) toModel() *model.ReturnRequest {
	rr := &model.ReturnRequest{
		ID:         r.ID,
		OrderID:    r.OrderID,
		BuyerID:    r.BuyerID,
		SellerID:   r.SellerID,
		ProductID:  r.ProductID,
		Quantity:   r.Quantity,
		Reason:     r.Reason,
		ReasonCode: model.ReturnReasonCode(r.ReasonCode),
		Status:     model.ReturnStatus(r.Status),
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.SellerActedAt.Valid {
		rr.SellerActedAt = &r.SellerActedAt.Time
	}
	if r.AdminActedAt.Valid {
		rr.AdminActedAt = &r.AdminActedAt.Time
	}
	return rr
}

type returnRequestRepository struct {
	db sqlx.ExtContext
}

func (r *returnRequestRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *returnRequestRepository) Create(ctx context.Context, rr *model.ReturnRequest) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO return_requests (`+returnRequestColumns+`)
		VALUES (:id, :order_id, :buyer_id, :seller_id, :product_id, :quantity, :reason, :reason_code, :status,
			:seller_acted_at, :admin_acted_at, :version, :created_at, :updated_at)`,
		newReturnRequestRow(rr),
	)
	return translate(err, "create return request", nil, model.ErrActiveReturnExists)
}

func (r *returnRequestRepository) Find(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	return r.find(ctx, `SELECT `+returnRequestColumns+` FROM return_requests WHERE id = ?`, id)
}

func (r *returnRequestRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	return r.find(ctx, `SELECT `+returnRequestColumns+` FROM return_requests WHERE id = ? FOR UPDATE`, id)
}

func (r *returnRequestRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*model.ReturnRequest, error) {
	return r.find(ctx, `SELECT `+returnRequestColumns+` FROM return_requests
		WHERE order_id = ? AND status IN (?, ?, ?) LIMIT 1`,
		orderID, int(model.AwaitingSeller), int(model.SellerRejected), int(model.AwaitingAdminIntervention),
	)
}

func (r *returnRequestRepository) List(ctx context.Context, q model.ReturnRequestQuery) ([]*model.ReturnRequest, int, error) {
	query, err := buildReturnRequestListQuery(q)
	if err != nil {
		return nil, 0, err
	}

	var rows []returnRequestRow
	total, err := list(ctx, r.db, query, q.PageSize, q.Offset(), &rows)
	if err != nil {
		return nil, 0, translate(err, "list return requests", nil, nil)
	}

	requests := make([]*model.ReturnRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, total, nil
}

func (r *returnRequestRepository) find(ctx context.Context, query string, args ...interface{}) (*model.ReturnRequest, error) {
	var row returnRequestRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		return nil, translate(err, "find return request", model.ErrReturnRequestNotFound, nil)
	}
	rr := row.toModel()

	var entries []resolutionEntryRow
	err := sqlx.SelectContext(ctx, r.db, &entries, `
		SELECT id, return_request_id, actor_id, actor_role, action, notes, created_at
		FROM return_request_log WHERE return_request_id = ? ORDER BY created_at, id`,
		rr.ID,
	)
	if err != nil {
		return nil, translate(err, "load return request log", nil, nil)
	}
	for _, e := range entries {
		rr.Log = append(rr.Log, model.ResolutionEntry{
			ID:              e.ID,
			ReturnRequestID: e.ReturnRequestID,
			ActorID:         e.ActorID,
			ActorRole:       model.ActorRole(e.ActorRole),
			Action:          model.ReturnAction(e.Action),
			Notes:           e.Notes,
			CreatedAt:       e.CreatedAt,
		})
	}
	return rr, nil
}

func (r *returnRequestRepository) Update(ctx context.Context, rr *model.ReturnRequest) error {
	row := newReturnRequestRow(rr)
	result, err := r.db.ExecContext(ctx, `
		UPDATE return_requests SET status = ?, seller_acted_at = ?, admin_acted_at = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		row.Status, row.SellerActedAt, row.AdminActedAt, row.Version, row.UpdatedAt,
		row.ID, row.Version-1,
	)
	if err != nil {
		return translate(err, "update return request", nil, nil)
	}
	return expectOneRow(result, "update return request")
}

// AppendLog only ever inserts; log rows are never updated or deleted.
func (r *returnRequestRepository) AppendLog(ctx context.Context, entry *model.ResolutionEntry) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO return_request_log (id, return_request_id, actor_id, actor_role, action, notes, created_at)
		VALUES (:id, :return_request_id, :actor_id, :actor_role, :action, :notes, :created_at)`,
		resolutionEntryRow{
			ID:              entry.ID,
			ReturnRequestID: entry.ReturnRequestID,
			ActorID:         entry.ActorID,
			ActorRole:       int(entry.ActorRole),
			Action:          int(entry.Action),
			Notes:           entry.Notes,
			CreatedAt:       entry.CreatedAt,
		},
	)
	return translate(err, "append return request log", nil, nil)
}

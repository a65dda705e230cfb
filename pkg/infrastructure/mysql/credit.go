package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

type creditRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Reason      int       `db:"reason"`
	ReferenceID uuid.UUID `db:"reference_id"`
	Delta       int       `db:"delta"`
	Applied     int       `db:"applied"`
	Balance     int       `db:"balance"`
	Note        string    `db:"note"`
	CreatedAt   time.Time `db:"created_at"`
}

type creditRepository struct {
	db sqlx.ExtContext
}

func (r *creditRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

// Append relies on the (reason, reference_id) unique key so that a fact
// replayed by a concurrent transaction fails instead of applying twice.
func (r *creditRepository) Append(ctx context.Context, e *model.CreditEntry) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO credit_ledger (id, user_id, reason, reference_id, delta, applied, balance, note, created_at)
		VALUES (:id, :user_id, :reason, :reference_id, :delta, :applied, :balance, :note, :created_at)`,
		creditRow{
			ID:          e.ID,
			UserID:      e.UserID,
			Reason:      int(e.Reason),
			ReferenceID: e.ReferenceID,
			Delta:       e.Delta,
			Applied:     e.Applied,
			Balance:     e.Balance,
			Note:        e.Note,
			CreatedAt:   e.CreatedAt,
		},
	)
	return translate(err, "append credit entry", nil, nil)
}

func (r *creditRepository) FindByReference(ctx context.Context, reason model.CreditReason, referenceID uuid.UUID) (*model.CreditEntry, error) {
	var row creditRow
	err := sqlx.GetContext(ctx, r.db, &row, `
		SELECT id, user_id, reason, reference_id, delta, applied, balance, note, created_at
		FROM credit_ledger WHERE reason = ? AND reference_id = ?`,
		int(reason), referenceID,
	)
	if err != nil {
		return nil, translate(err, "find credit entry", model.ErrCreditEntryNotFound, nil)
	}
	return &model.CreditEntry{
		ID:          row.ID,
		UserID:      row.UserID,
		Reason:      model.CreditReason(row.Reason),
		ReferenceID: row.ReferenceID,
		Delta:       row.Delta,
		Applied:     row.Applied,
		Balance:     row.Balance,
		Note:        row.Note,
		CreatedAt:   row.CreatedAt,
	}, nil
}

package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

const evaluationColumns = `id, order_id, buyer_id, seller_id, rating, content, created_at`

type evaluationRow struct {
	ID        uuid.UUID `db:"id"`
	OrderID   uuid.UUID `db:"order_id"`
	BuyerID   uuid.UUID `db:"buyer_id"`
	SellerID  uuid.UUID `db:"seller_id"`
	Rating    int       `db:"rating"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r evaluationRow) toModel() *model.Evaluation {
	return &model.Evaluation{
		ID:        r.ID,
		OrderID:   r.OrderID,
		BuyerID:   r.BuyerID,
		SellerID:  r.SellerID,
		Rating:    r.Rating,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

type evaluationRepository struct {
	db sqlx.ExtContext
}

func (r *evaluationRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *evaluationRepository) Create(ctx context.Context, e *model.Evaluation) error {
	_, err := sqlx.NamedExecContext(ctx, r.db,
		`INSERT INTO evaluations (`+evaluationColumns+`)
		VALUES (:id, :order_id, :buyer_id, :seller_id, :rating, :content, :created_at)`,
		evaluationRow{
			ID:        e.ID,
			OrderID:   e.OrderID,
			BuyerID:   e.BuyerID,
			SellerID:  e.SellerID,
			Rating:    e.Rating,
			Content:   e.Content,
			CreatedAt: e.CreatedAt,
		},
	)
	return translate(err, "create evaluation", nil, model.ErrEvaluationExists)
}

func (r *evaluationRepository) Find(ctx context.Context, id uuid.UUID) (*model.Evaluation, error) {
	return r.find(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
}

func (r *evaluationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*model.Evaluation, error) {
	return r.find(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE order_id = ?`, orderID)
}

func (r *evaluationRepository) find(ctx context.Context, query string, arg uuid.UUID) (*model.Evaluation, error) {
	var row evaluationRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		return nil, translate(err, "find evaluation", model.ErrEvaluationNotFound, nil)
	}
	return row.toModel(), nil
}

func (r *evaluationRepository) List(ctx context.Context, q model.EvaluationQuery) ([]*model.Evaluation, int, error) {
	query, err := buildEvaluationListQuery(q)
	if err != nil {
		return nil, 0, err
	}

	var rows []evaluationRow
	total, err := list(ctx, r.db, query, q.PageSize, q.Offset(), &rows)
	if err != nil {
		return nil, 0, translate(err, "list evaluations", nil, nil)
	}

	evaluations := make([]*model.Evaluation, 0, len(rows))
	for _, row := range rows {
		evaluations = append(evaluations, row.toModel())
	}
	return evaluations, total, nil
}

func (r *evaluationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id)
	return translate(err, "delete evaluation", nil, nil)
}

package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campustrade/pkg/domain/model"
)

// Column names reachable from a listing request. Caller input only ever
// selects a key of these maps and never reaches the SQL text.
var (
	partyColumns = map[model.ListRole]string{
		model.ListAsBuyer:  "buyer_id",
		model.ListAsSeller: "seller_id",
	}
	orderSortColumns = map[model.OrderSortField]string{
		model.SortByCreatedAt: "created_at",
		model.SortByUpdatedAt: "updated_at",
		model.SortByTotal:     "total_cents",
	}
)

type condition struct {
	clause string
	args   []interface{}
}

func equals(column string, value interface{}) condition {
	return condition{clause: column + " = ?", args: []interface{}{value}}
}

type conditions []condition

// where renders the conditions joined by AND, with the WHERE keyword, or an
// empty string when there are none.
func (c conditions) where() (string, []interface{}) {
	if len(c) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(c))
	var args []interface{}
	for _, cond := range c {
		clauses = append(clauses, cond.clause)
		args = append(args, cond.args...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func partyConditions(role model.ListRole, userID uuid.UUID) (conditions, error) {
	switch role {
	case model.ListAll:
		return nil, nil
	case model.ListAsParty:
		return conditions{{clause: "(buyer_id = ? OR seller_id = ?)", args: []interface{}{userID, userID}}}, nil
	}
	column, ok := partyColumns[role]
	if !ok {
		return nil, model.ErrInvalidQuery
	}
	return conditions{equals(column, userID)}, nil
}

// listQuery holds the page query, the matching count query and the shared
// filter arguments. The page query takes LIMIT and OFFSET as two extra
// trailing arguments.
type listQuery struct {
	selectSQL string
	countSQL  string
	args      []interface{}
}

func (q listQuery) pageArgs(limit, offset int) []interface{} {
	return append(append([]interface{}{}, q.args...), limit, offset)
}

// list counts the matching rows and scans one page of them into dest.
func list(ctx context.Context, db sqlx.QueryerContext, q listQuery, limit, offset int, dest interface{}) (int, error) {
	var total int
	if err := sqlx.GetContext(ctx, db, &total, q.countSQL, q.args...); err != nil {
		return 0, err
	}
	if err := sqlx.SelectContext(ctx, db, dest, q.selectSQL, q.pageArgs(limit, offset)...); err != nil {
		return 0, err
	}
	return total, nil
}

func buildListQuery(table, columns string, conds conditions, orderBy string) listQuery {
	where, args := conds.where()
	return listQuery{
		selectSQL: fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?`, columns, table, where, orderBy),
		countSQL:  fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, table, where),
		args:      args,
	}
}

func buildOrderListQuery(q model.OrderQuery) (listQuery, error) {
	if q.Role == model.ListAsParty {
		return listQuery{}, model.ErrInvalidQuery
	}
	conds, err := partyConditions(q.Role, q.UserID)
	if err != nil {
		return listQuery{}, err
	}
	sortColumn, ok := orderSortColumns[q.SortBy]
	if !ok {
		return listQuery{}, model.ErrInvalidQuery
	}
	if q.Status != nil {
		conds = append(conds, equals("status", int(*q.Status)))
	}

	direction := "ASC"
	if q.IsDescending() {
		direction = "DESC"
	}
	return buildListQuery("orders", orderColumns, conds,
		fmt.Sprintf("%s %s, id %s", sortColumn, direction, direction)), nil
}

func buildReturnRequestListQuery(q model.ReturnRequestQuery) (listQuery, error) {
	conds, err := partyConditions(q.Role, q.UserID)
	if err != nil {
		return listQuery{}, err
	}
	if q.Status != nil {
		conds = append(conds, equals("status", int(*q.Status)))
	}
	return buildListQuery("return_requests", returnRequestColumns, conds, "created_at DESC, id DESC"), nil
}

func buildEvaluationListQuery(q model.EvaluationQuery) (listQuery, error) {
	if q.Role == model.ListAsParty {
		return listQuery{}, model.ErrInvalidQuery
	}
	conds, err := partyConditions(q.Role, q.UserID)
	if err != nil {
		return listQuery{}, err
	}
	return buildListQuery("evaluations", evaluationColumns, conds, "created_at DESC, id DESC"), nil
}

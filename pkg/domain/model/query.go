package model

import "github.com/google/uuid"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps the row offset far from integer overflow.
	MaxPage = 100000
)

type ListRole int

const (
	ListAsBuyer ListRole = iota
	ListAsSeller
	// ListAsParty matches rows where the user is either buyer or seller.
	ListAsParty
	// ListAll ignores the user filter and is reserved to staff.
	ListAll
)

func ParseListRole(s string) (ListRole, error) {
	switch s {
	case "", "buyer":
		return ListAsBuyer, nil
	case "seller":
		return ListAsSeller, nil
	}
	return 0, ErrInvalidQuery
}

// normalizePage fills the default page and size and rejects values outside
// the allowed ranges.
func normalizePage(page, pageSize *int) error {
	if *page == 0 {
		*page = 1
	}
	if *pageSize == 0 {
		*pageSize = DefaultPageSize
	}
	if *page < 1 || *page > MaxPage || *pageSize < 1 || *pageSize > MaxPageSize {
		return ErrInvalidQuery
	}
	return nil
}

func offset(page, pageSize int) int { return (page - 1) * pageSize }

type OrderSortField string

const (
	SortByCreatedAt OrderSortField = "created_at"
	SortByUpdatedAt OrderSortField = "updated_at"
	SortByTotal     OrderSortField = "total"
)

type OrderQuery struct {
	UserID     uuid.UUID
	Role       ListRole
	Status     *OrderStatus
	Page       int
	PageSize   int
	SortBy     OrderSortField
	// Descending is nil when the caller did not choose a direction.
	Descending *bool
}

// Normalize fills defaults and rejects values outside the allowed ranges.
func (q *OrderQuery) Normalize() error {
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.Descending == nil {
		desc := true
		q.Descending = &desc
	}
	if err := normalizePage(&q.Page, &q.PageSize); err != nil {
		return err
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByTotal:
	default:
		return ErrInvalidQuery
	}
	if q.Role == ListAsParty {
		return ErrInvalidQuery
	}
	return nil
}

func (q OrderQuery) Offset() int { return offset(q.Page, q.PageSize) }

func (q OrderQuery) IsDescending() bool { return q.Descending != nil && *q.Descending }

// ReturnRequestQuery lists return requests newest first.
type ReturnRequestQuery struct {
	UserID   uuid.UUID
	Role     ListRole
	Status   *ReturnStatus
	Page     int
	PageSize int
}

func (q *ReturnRequestQuery) Normalize() error {
	if q.Status != nil {
		if _, ok := returnStatusNames[*q.Status]; !ok {
			return ErrInvalidQuery
		}
	}
	return normalizePage(&q.Page, &q.PageSize)
}

func (q ReturnRequestQuery) Offset() int { return offset(q.Page, q.PageSize) }

// EvaluationQuery lists evaluations newest first. ListAsBuyer selects the
// evaluations a user made, ListAsSeller the ones they received.
type EvaluationQuery struct {
	UserID   uuid.UUID
	Role     ListRole
	Page     int
	PageSize int
}

func (q *EvaluationQuery) Normalize() error {
	if q.Role == ListAsParty {
		return ErrInvalidQuery
	}
	return normalizePage(&q.Page, &q.PageSize)
}

func (q EvaluationQuery) Offset() int { return offset(q.Page, q.PageSize) }

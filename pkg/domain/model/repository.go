package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindForUpdate holds an exclusive lock on the row until the enclosing
	// unit of work ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, product *Product) error
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, order *Order) error
	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, order *Order) error
	List(ctx context.Context, query OrderQuery) ([]*Order, int, error)
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type UserRepository interface {
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
}

type CreditRepository interface {
	NextID() (uuid.UUID, error)
	Append(ctx context.Context, entry *CreditEntry) error
	FindByReference(ctx context.Context, reason CreditReason, referenceID uuid.UUID) (*CreditEntry, error)
}

type EvaluationRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, evaluation *Evaluation) error
	Find(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Evaluation, error)
	List(ctx context.Context, query EvaluationQuery) ([]*Evaluation, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReturnRequestRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, request *ReturnRequest) error
	// Find loads the request together with its resolution log.
	Find(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*ReturnRequest, error)
	// List returns requests without their resolution logs.
	List(ctx context.Context, query ReturnRequestQuery) ([]*ReturnRequest, int, error)
	Update(ctx context.Context, request *ReturnRequest) error
	AppendLog(ctx context.Context, entry *ResolutionEntry) error
}

type RepositoryProvider interface {
	Products() ProductRepository
	Orders() OrderRepository
	Users() UserRepository
	Credits() CreditRepository
	Evaluations() EvaluationRepository
	ReturnRequests() ReturnRequestRepository
}

// UnitOfWork runs fn in one transaction. A non-nil error from fn rolls back
// every write made through the provider.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos RepositoryProvider) error) error
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
)

// InventoryLedger is the only code path that changes a product's quantity.
// Both operations run inside the caller's unit of work and lock the product
// row before reading it.
type InventoryLedger interface {
	DecrementStock(ctx context.Context, repos model.RepositoryProvider, productID uuid.UUID, amount int) (model.StockChanged, error)
	IncrementStock(ctx context.Context, repos model.RepositoryProvider, productID uuid.UUID, amount int) (model.StockChanged, error)
}

func NewInventoryLedger() InventoryLedger {
	return &inventoryLedger{}
}

type inventoryLedger struct{}

func (l *inventoryLedger) DecrementStock(ctx context.Context, repos model.RepositoryProvider, productID uuid.UUID, amount int) (model.StockChanged, error) {
	if amount <= 0 {
		return model.StockChanged{}, model.ErrInvalidQuantity
	}
	return l.changeStock(ctx, repos, productID, -amount, func(p *model.Product) error {
		return p.Decrement(amount)
	})
}

func (l *inventoryLedger) IncrementStock(ctx context.Context, repos model.RepositoryProvider, productID uuid.UUID, amount int) (model.StockChanged, error) {
	if amount < 0 {
		return model.StockChanged{}, model.ErrInvalidQuantity
	}
	return l.changeStock(ctx, repos, productID, amount, func(p *model.Product) error {
		return p.Increment(amount)
	})
}

func (l *inventoryLedger) changeStock(ctx context.Context, repos model.RepositoryProvider, productID uuid.UUID, amount int, action func(p *model.Product) error) (model.StockChanged, error) {
	product, err := repos.Products().FindForUpdate(ctx, productID)
	if err != nil {
		return model.StockChanged{}, err
	}

	if err := action(product); err != nil {
		return model.StockChanged{}, err
	}

	product.Version++
	product.UpdatedAt = time.Now().UTC()
	if err := repos.Products().Update(ctx, product); err != nil {
		return model.StockChanged{}, err
	}

	return model.StockChanged{
		ProductID:    productID,
		ChangeAmount: amount,
		NewQuantity:  product.Quantity,
		Status:       product.Status,
	}, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type ProductStatus int

const (
	ProductPendingReview ProductStatus = iota
	ProductActive
	ProductRejected
	ProductSold
	ProductWithdrawn
)

func (s ProductStatus) String() string {
	switch s {
	case ProductPendingReview:
		return "PendingReview"
	case ProductActive:
		return "Active"
	case ProductRejected:
		return "Rejected"
	case ProductSold:
		return "Sold"
	case ProductWithdrawn:
		return "Withdrawn"
	}
	return "Unknown"
}

type Product struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	PriceCents int64
	Quantity   int
	Status     ProductStatus
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decrement takes amount units off the shelf. A product that runs out becomes Sold.
func (p *Product) Decrement(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	switch p.Status {
	case ProductActive:
	case ProductSold:
		return ErrInsufficientStock
	default:
		return ErrProductNotActive
	}
	if p.Quantity < amount {
		return ErrInsufficientStock
	}

	p.Quantity -= amount
	if p.Quantity == 0 {
		p.Status = ProductSold
	}
	return nil
}

// Increment puts amount units back. Only a Sold product is promoted back to
// Active; withdrawn or unreviewed listings keep their status.
func (p *Product) Increment(amount int) error {
	if amount < 0 {
		return ErrInvalidQuantity
	}

	p.Quantity += amount
	if p.Status == ProductSold && p.Quantity > 0 {
		p.Status = ProductActive
	}
	return nil
}

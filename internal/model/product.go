package model

import "time"

// Product is a row in the `products` table, the resource the catalog
// permissions guard.
type Product struct {
	ID          uint64    // products.id
	Name        string    // products.name
	Description string    // products.description
	PriceCents  int64     // products.price_cents
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}

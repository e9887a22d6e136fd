package product

import "time"

type StockStatus string

const (
	StatusInStock    StockStatus = "InStock"
	StatusOutOfStock StockStatus = "OutOfStock"
)

// StatusFor derives the stock status from a quantity.
func StatusFor(quantity int) StockStatus {
	if quantity > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product prices are integer minor currency units. Quantity mirrors the sum
// of the product's inventory rows.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       int64       `json:"price"`
	Quantity    int         `json:"quantity"`
	StockStatus StockStatus `json:"stockStatus"`
	CategoryID  *string     `json:"categoryId,omitempty"`
	CreatedBy   string      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type NewProductInput struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Description       string  `json:"description" validate:"max=5000"`
	Price             int64   `json:"price" validate:"gte=0"`
	InitialQuantity   int     `json:"initialQuantity" validate:"gte=0"`
	Location          string  `json:"location" validate:"max=100"`
	LowStockThreshold *int    `json:"lowStockThreshold" validate:"omitempty,gte=0"`
	CategoryID        *string `json:"categoryId" validate:"omitempty,uuid"`
}

// UpdateInput changes catalogue fields only; stock moves through inventory.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	CategoryID  *string `json:"categoryId" validate:"omitempty,uuid"`
}

type ListFilter struct {
	Search      string
	CategoryID  string
	InStockOnly bool
	Limit       int
	Offset      int
}

package cart

import (
	"time"

	"storefront-be/internal/utils"
)

type CartItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	UnitPrice   int64     `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	InStock     int       `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c CartItem) Subtotal() int64 {
	return c.UnitPrice * int64(c.Quantity)
}

type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice int64      `json:"totalPrice"`
}

func (c Cart) DisplayTotal() string {
	return utils.FormatMinor(c.TotalPrice)
}

type AddInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type UpdateInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

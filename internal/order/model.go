package order

import (
	"time"

	"storefront-be/internal/reservation"
	"storefront-be/internal/utils"
)

type Order struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Email           string     `json:"email"`
	Items           []Item     `json:"items"`
	TotalPrice      int64      `json:"totalPrice"`
	Status          Status     `json:"status"`
	PaymentRef      *string    `json:"paymentRef,omitempty"`
	ShippingAddress string     `json:"shippingAddress"`
	TrackingNumber  *string    `json:"trackingNumber,omitempty"`
	CancelReason    *string    `json:"cancelReason,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// DisplayTotal renders the total in major units with two decimals.
func (o Order) DisplayTotal() string {
	return utils.FormatMinor(o.TotalPrice)
}

type Item struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

func itemsFromLines(lines []reservation.PricedItem) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return items
}

type CreateInput struct {
	Items           []reservation.Item `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shippingAddress" validate:"max=1000"`
}

type CheckoutInput struct {
	ShippingAddress string `json:"shippingAddress" validate:"max=1000"`
}

type StatusOptions struct {
	TrackingNumber string `json:"trackingNumber" validate:"max=200"`
	CancelReason   string `json:"cancelReason" validate:"max=1000"`
}

type ListFilter struct {
	UserID string
	Status Status
	Limit  int
	Offset int
}

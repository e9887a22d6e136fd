package httpapi

import (
	"storefront-be/internal/cart"
	"storefront-be/internal/order"
)

// orderResponse adds the formatted total to an order.
type orderResponse struct {
	order.Order
	DisplayTotal string `json:"displayTotal"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{Order: *o, DisplayTotal: o.DisplayTotal()}
}

type orderList struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type cartResponse struct {
	cart.Cart
	DisplayTotal string `json:"displayTotal"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	order.StatusOptions
}

type verifyResponse struct {
	Message string        `json:"message"`
	Order   orderResponse `json:"order"`
}

type webhookResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
}

type syncRequest struct {
	ProductIDs []string `json:"productIds" validate:"omitempty,dive,uuid"`
}

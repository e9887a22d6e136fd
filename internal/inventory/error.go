package inventory

import (
	"errors"

	"storefront-be/internal/apperror"
)

var (
	ErrProductNotFound = apperror.New(apperror.KindNotFound, "product not found")
	ErrInvalidMovement = apperror.New(apperror.KindValidation, "invalid operation type")
	ErrInvalidQuantity = apperror.New(apperror.KindValidation, "quantity must be greater than zero")
)

// ErrInsufficientStock matches every error built by InsufficientStock.
var ErrInsufficientStock = apperror.New(apperror.KindInsufficientStock, "")

func InsufficientStock(productID string, available, requested int) error {
	return apperror.New(apperror.KindInsufficientStock, "insufficient stock").WithDetails(map[string]any{
		"productId": productID,
		"available": available,
		"requested": requested,
	})
}

func ProductNotFound(productID string) error {
	return ErrProductNotFound.WithDetails(map[string]any{"productId": productID})
}

// IsInsufficientStock reports whether err carries an insufficient stock rejection.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

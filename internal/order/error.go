package order

import "storefront-be/internal/apperror"

var (
	ErrOrderNotFound  = apperror.New(apperror.KindNotFound, "order not found")
	ErrForbidden      = apperror.New(apperror.KindForbidden, "not permitted to access this order")
	ErrAlreadySettled = apperror.New(apperror.KindAlreadySettled, "order not found or already processed")
	ErrStatusChanged  = apperror.New(apperror.KindConflict, "order status changed concurrently")
	ErrCartEmpty      = apperror.New(apperror.KindValidation, "cart is empty")
	ErrInvalidStatus  = apperror.New(apperror.KindValidation, "unknown order status")
)

func invalidTransition(from, to Status) error {
	return apperror.Newf(apperror.KindInvalidTransition, "cannot move order from %s to %s", from, to).
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}

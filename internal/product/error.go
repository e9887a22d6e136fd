package product

import "storefront-be/internal/apperror"

var (
	ErrProductNotFound = apperror.New(apperror.KindNotFound, "product not found")
	ErrInvalidPrice    = apperror.New(apperror.KindValidation, "price must not be negative")
	ErrUnknownCategory = apperror.New(apperror.KindValidation, "category does not exist")
	ErrProductInUse    = apperror.New(apperror.KindConflict, "product is referenced by orders")
)

package cart

import "storefront-be/internal/apperror"

var (
	ErrUserNotAuthenticated = apperror.New(apperror.KindUnauthorized, "user not authenticated")
	ErrInvalidQuantity      = apperror.New(apperror.KindValidation, "invalid cart quantity")
	ErrCartItemNotFound     = apperror.New(apperror.KindNotFound, "cart item not found")
	ErrProductRequired      = apperror.New(apperror.KindValidation, "productId is required")
)

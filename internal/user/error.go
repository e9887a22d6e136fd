package user

import "storefront-be/internal/apperror"

var (
	ErrEmailExists        = apperror.New(apperror.KindConflict, "email already registered")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid credentials")
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
	ErrForbidden          = apperror.New(apperror.KindForbidden, "not permitted to view users")
)

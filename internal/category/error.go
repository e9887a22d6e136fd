package category

import "storefront-be/internal/apperror"

var (
	ErrCategoryNotFound = apperror.New(apperror.KindNotFound, "category not found")
	ErrCategoryExists   = apperror.New(apperror.KindConflict, "category already exists")
	ErrNameRequired     = apperror.New(apperror.KindValidation, "name is required")
	ErrForbidden        = apperror.New(apperror.KindForbidden, "not permitted to manage categories")
)

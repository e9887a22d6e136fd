package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindSignatureInvalid   Kind = "SIGNATURE_INVALID"
	KindAlreadySettled     Kind = "ALREADY_SETTLED"
	KindGatewayUnavailable Kind = "GATEWAY_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
}

var metadataByKind = map[Kind]Metadata{
	KindValidation:         {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed"},
	KindUnauthorized:       {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	KindForbidden:          {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	KindNotFound:           {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	KindConflict:           {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
	KindInsufficientStock:  {HTTPStatus: http.StatusConflict, PublicMessage: "insufficient stock"},
	KindInvalidTransition:  {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "status transition not allowed"},
	KindSignatureInvalid:   {HTTPStatus: http.StatusUnauthorized, PublicMessage: "invalid signature"},
	KindAlreadySettled:     {HTTPStatus: http.StatusConflict, PublicMessage: "order not found or already processed"},
	KindGatewayUnavailable: {HTTPStatus: http.StatusBadGateway, Retryable: true, PublicMessage: "payment gateway unavailable"},
	KindInternal:           {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
}

// MetadataFor returns the transport metadata for kind, falling back to
// KindInternal for unknown kinds.
func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

// Error is a classified failure with a stable machine-readable kind.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Message() string { return e.message }

func (e *Error) Details() map[string]any { return e.details }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.details = details
	return &cp
}

// Is matches another *Error by kind so sentinel values compare by category.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.message != "" && t.message != e.message {
		return false
	}
	return t.kind == e.kind
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf reports the kind of err; unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.kind
	}
	return KindInternal
}

// IsKind reports whether err's chain holds an *Error of kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

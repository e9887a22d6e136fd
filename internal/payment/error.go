package payment

import "storefront-be/internal/apperror"

var (
	ErrSecretUnavailable    = apperror.New(apperror.KindInternal, "payment secret unavailable")
	ErrSignatureInvalid     = apperror.New(apperror.KindSignatureInvalid, "invalid signature")
	ErrOrderNotPending      = apperror.New(apperror.KindValidation, "order is not in pending status")
	ErrPaymentNotSuccessful = apperror.New(apperror.KindValidation, "payment not successful")
	ErrReferenceRequired    = apperror.New(apperror.KindValidation, "reference is required")
)

// GatewayRejected reports a 4xx answer from the gateway.
func GatewayRejected(status int, message string) error {
	return apperror.New(apperror.KindValidation, "payment gateway rejected request").WithDetails(map[string]any{
		"status":  status,
		"message": message,
	})
}

func gatewayUnavailable(cause error, op string) error {
	return apperror.Wrap(apperror.KindGatewayUnavailable, cause, op)
}

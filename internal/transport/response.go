package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type ErrorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps err to its kind's status and writes the error envelope.
// Internal failures are logged and answered with the public message only.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := apperror.As(err)
	if typed == nil {
		typed = apperror.Wrap(apperror.KindInternal, err, "unexpected error")
	}

	meta := apperror.MetadataFor(typed.Kind())
	body := ErrorBody{Kind: string(typed.Kind()), Message: meta.PublicMessage}

	switch typed.Kind() {
	case apperror.KindInternal, apperror.KindGatewayUnavailable:
		logger.FromCtx(ctx).Error("request failed",
			zap.String("kind", string(typed.Kind())),
			zap.Error(err),
		)
	case apperror.KindSignatureInvalid:
		// no detail is returned for signature failures
	default:
		if m := typed.Message(); m != "" {
			body.Message = m
		}
		body.Details = typed.Details()
	}

	WriteJSON(w, meta.HTTPStatus, ErrorEnvelope{Error: body})
}

package httpapi

import (
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"
	"storefront-be/internal/settlement"
	"storefront-be/internal/transport"

	"go.uber.org/zap"
)

const (
	signatureHeader = "x-gateway-signature"
	maxWebhookBytes = 1 << 20
)

type paymentHandler struct {
	payments payment.Service
	settler  Settler
}

func (h *paymentHandler) initialize(w http.ResponseWriter, r *http.Request) {
	var in payment.InitializeInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	res, err := h.payments.InitializePayment(r.Context(), actorFrom(r), in.OrderID)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

func (h *paymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		transport.WriteError(r.Context(), w, payment.ErrReferenceRequired)
		return
	}
	o, err := h.settler.VerifyAndSettle(r.Context(), actorFrom(r), ref)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, verifyResponse{
		Message: "payment verified",
		Order:   newOrderResponse(o),
	})
}

// webhook hands the exact bytes received to the coordinator; the signature
// covers the raw body.
func (h *paymentHandler) webhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("layer", "handler"), zap.String("method", "Webhook"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			transport.WriteError(r.Context(), w, apperror.New(apperror.KindValidation, "payload too large"))
			return
		}
		transport.WriteError(r.Context(), w, apperror.Wrap(apperror.KindValidation, err, "unreadable body"))
		return
	}

	res, err := h.settler.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader))
	if err != nil {
		if !apperror.IsKind(err, apperror.KindSignatureInvalid) {
			log.Warn("webhook not settled", zap.Error(err))
		}
		transport.WriteError(r.Context(), w, err)
		return
	}

	status := string(res.Status)
	if res.Status == settlement.WebhookDuplicate {
		status = string(settlement.WebhookIgnored)
	}
	transport.WriteJSON(w, http.StatusOK, webhookResponse{Status: status, OrderID: res.OrderID})
}

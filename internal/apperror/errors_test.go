package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindAndMessage(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindGatewayUnavailable, cause, "verify transaction")

	assert.Equal(t, KindGatewayUnavailable, err.Kind())
	assert.Equal(t, "verify transaction: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesSentinelByKindAndMessage(t *testing.T) {
	sentinel := New(KindNotFound, "order not found")

	wrapped := fmt.Errorf("load order: %w", sentinel.WithDetails(map[string]any{"order_id": "o-1"}))
	assert.ErrorIs(t, wrapped, sentinel)

	other := New(KindNotFound, "product not found")
	assert.NotErrorIs(t, other, sentinel)

	// A message-less target matches any error of the same kind.
	assert.ErrorIs(t, other, New(KindNotFound, ""))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrap: %w", New(KindForbidden, "nope"))))
	assert.True(t, IsKind(New(KindAlreadySettled, "x"), KindAlreadySettled))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, MetadataFor(KindInsufficientStock).HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, MetadataFor(KindSignatureInvalid).HTTPStatus)
	assert.True(t, MetadataFor(KindGatewayUnavailable).Retryable)
	assert.Equal(t, MetadataFor(KindInternal), MetadataFor(Kind("unknown")))
}

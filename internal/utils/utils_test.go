package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	t.Run("SetUserContext and GetUserIDFromContext", func(t *testing.T) {
		ctx := SetUserContext(context.Background(), "user-100", "user@example.com", "User")

		id, ok := GetUserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user-100", id)
	})

	t.Run("GetUserIDFromContext with empty context", func(t *testing.T) {
		_, ok := GetUserIDFromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestGeneratePaymentReference(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		ref := GeneratePaymentReference()
		assert.True(t, strings.HasPrefix(ref, "PAY-"))

		parts := strings.Split(ref, "-")
		if assert.Len(t, parts, 5) {
			assert.Len(t, parts[1], 8)
			assert.Len(t, parts[2], 6)
			assert.Len(t, parts[3], 3)
			assert.Len(t, parts[4], 4)
		}
	})
}

func TestFormatMinor(t *testing.T) {
	tests := []struct {
		minor    int64
		expected string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{2000, "20.00"},
		{123456, "1234.56"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatMinor(tt.minor))
	}
}

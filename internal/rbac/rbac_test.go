package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   bool
	}{
		{RoleUser, GetProduct, true},
		{RoleUser, UpdateOrderStatus, false},
		{RoleUser, GetUserOrders, false},
		{RoleAdmin, UpdateOrderStatus, true},
		{RoleAdmin, GetUserOrders, true},
		{RoleAdmin, DeleteProfile, false},
		{RoleSuperAdmin, DeleteProfile, true},
		{RoleSuperAdmin, ManageInventory, true},
		{"ghost", GetProduct, false},
		{"", GetProduct, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.action))
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: "u-1", Role: RoleAdmin})
	a, ok := ActorFrom(ctx)
	assert.True(t, ok)
	assert.True(t, a.Can(ViewReports))
}

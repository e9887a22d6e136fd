package rbac

import "context"

type Action string

const (
	GetProfile        Action = "get_profile"
	GetProfiles       Action = "get_profiles"
	UpdateProfile     Action = "update_profile"
	DeleteProfile     Action = "delete_profile"
	AddProduct        Action = "add_product"
	UpdateProduct     Action = "update_product"
	GetProduct        Action = "get_product"
	DeleteProduct     Action = "delete_product"
	AddCategory       Action = "add_category"
	UpdateCategory    Action = "update_category"
	DeleteCategory    Action = "delete_category"
	GetUserOrders     Action = "get_userOders"
	UpdateOrderStatus Action = "update_orderStatus"
	ManageInventory   Action = "manage_inventory"
	ViewReports       Action = "view_reports"
)

const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "superadmin"
)

var staff = []Action{
	GetProfile, GetProfiles, UpdateProfile,
	AddProduct, UpdateProduct, GetProduct, DeleteProduct,
	AddCategory, UpdateCategory, DeleteCategory,
	GetUserOrders, UpdateOrderStatus,
	ManageInventory, ViewReports,
}

var permissions = map[string]map[Action]struct{}{
	RoleUser:       set(GetProfile, UpdateProfile, GetProduct),
	RoleAdmin:      set(staff...),
	RoleSuperAdmin: set(append([]Action{DeleteProfile}, staff...)...),
}

func set(actions ...Action) map[Action]struct{} {
	m := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return m
}

// Can reports whether role may perform action. Unknown roles hold nothing.
func Can(role string, action Action) bool {
	_, ok := permissions[role][action]
	return ok
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) Can(action Action) bool {
	return Can(a.Role, action)
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.UserID != ""
}

package inventory

import "time"

type MovementType string

const (
	MovementAdd    MovementType = "ADD"
	MovementRemove MovementType = "REMOVE"
	MovementAdjust MovementType = "ADJUST"
	MovementOrder  MovementType = "ORDER"
	MovementReturn MovementType = "RETURN"
)

const (
	DefaultLocation          = "Main-Shop"
	DefaultLowStockThreshold = 10
)

type Inventory struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"productId"`
	ProductName       string    `json:"productName"`
	Location          string    `json:"location"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// IsLowStock reports whether the row has fallen under its alert threshold.
func (i Inventory) IsLowStock() bool {
	return i.Quantity < i.LowStockThreshold
}

// History is an append-only stock movement. Previous and New hold the
// product-level totals around the movement.
type History struct {
	ID               string       `json:"id"`
	ProductID        string       `json:"productId"`
	Type             MovementType `json:"type"`
	Quantity         int          `json:"quantity"`
	PreviousQuantity int          `json:"previousQuantity"`
	NewQuantity      int          `json:"newQuantity"`
	Reason           string       `json:"reason"`
	PerformedBy      string       `json:"performedBy"`
	OrderID          *string      `json:"orderId,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Movement describes the effect of one stock mutation.
type Movement struct {
	ProductID         string       `json:"productId"`
	Type              MovementType `json:"type"`
	Location          string       `json:"location"`
	Quantity          int          `json:"quantity"`
	PreviousTotal     int          `json:"previousQuantity"`
	NewTotal          int          `json:"newQuantity"`
	LocationQuantity  int          `json:"locationQuantity"`
	LowStockThreshold int          `json:"lowStockThreshold"`
}

func (m Movement) IsLowStock() bool {
	return m.LocationQuantity < m.LowStockThreshold
}

type StockUpdate struct {
	ProductID string       `json:"productId" validate:"required,uuid"`
	Type      MovementType `json:"type" validate:"required,oneof=ADD REMOVE ADJUST"`
	Quantity  int          `json:"quantity" validate:"gte=0"`
	Reason    string       `json:"reason" validate:"required,max=500"`
	Location  string       `json:"location" validate:"max=100"`
}

type StatusFilter struct {
	LowStockOnly bool
	Location     string
}

type SyncResult struct {
	ProductID        string `json:"productId"`
	PreviousQuantity int    `json:"previousQuantity"`
	NewQuantity      int    `json:"newQuantity"`
}

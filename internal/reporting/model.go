package reporting

import "time"

// Range is a closed reporting window over order creation time.
type Range struct {
	Start time.Time
	End   time.Time
}

type SalesReport struct {
	TotalSales  int64 `json:"totalSales"`
	TotalOrders int   `json:"totalOrders"`
}

type InventoryLine struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	Location          string `json:"location"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold int    `json:"lowStockThreshold"`
}

type ProductPerformance struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	TotalQuantitySold int    `json:"totalQuantitySold"`
	TotalSales        int64  `json:"totalSales"`
}

type UserActivity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	TotalOrders int    `json:"totalOrders"`
	TotalSpent  int64  `json:"totalSpent"`
}

type Dashboard struct {
	Sales       SalesReport          `json:"sales"`
	LowStock    []InventoryLine      `json:"lowStock"`
	TopProducts []ProductPerformance `json:"topProducts"`
	TopUsers    []UserActivity       `json:"topUsers"`
}

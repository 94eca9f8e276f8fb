package model

// OrderMode is the side of an order.
type OrderMode string

const (
	ModeBuy  OrderMode = "BUY"
	ModeSell OrderMode = "SELL"
)

// Valid reports whether m is BUY or SELL.
func (m OrderMode) Valid() bool {
	return m == ModeBuy || m == ModeSell
}

// Order is an order as accepted by, or reported by, the brokerage backend.
type Order struct {
	Name  string    `json:"name"`
	Qty   float64   `json:"qty"`
	Price float64   `json:"price"`
	Mode  OrderMode `json:"mode"`
}

// OrderLine is an order enriched for display.
type OrderLine struct {
	Order
	Total  float64 `json:"total"`
	Status string  `json:"status"`
}

// OrdersView is the response of the orders endpoint.
type OrdersView struct {
	AllOrders []OrderLine    `json:"allOrders"`
	Source    SnapshotSource `json:"source"`
}

// OrderReceipt is returned after the broker accepted an order.
type OrderReceipt struct {
	Order          Order   `json:"order"`
	Total          float64 `json:"total"`
	ConfirmDelayMs int64   `json:"confirmDelayMs"`
}

// Summary is the dashboard landing view.
type Summary struct {
	HoldingsCount int            `json:"holdingsCount"`
	Holdings      Aggregate      `json:"holdings"`
	RecentOrders  []Order        `json:"recentOrders"`
	Source        SnapshotSource `json:"source"`
}

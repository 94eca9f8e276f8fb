package request

// SubmitOrderRequest represents the request body for placing an order.
type SubmitOrderRequest struct {
	Name  string  `json:"name"`
	Qty   float64 `json:"qty"`
	Price float64 `json:"price"`
	Mode  string  `json:"mode"`
}

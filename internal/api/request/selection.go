package request

// OpenPanelRequest represents the instrument a buy or sell panel is opened for.
type OpenPanelRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// UpdateDraftRequest represents the draft inputs of the open panel.
type UpdateDraftRequest struct {
	Qty   float64 `json:"qty"`
	Price float64 `json:"price"`
}

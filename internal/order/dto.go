package order

// CartItem is one line of a checkout request.
// swagger:model CartItem
type CartItem struct {
	MenuItemID     string   `json:"menu_item_id"   example:"latte"`
	Quantity       int      `json:"quantity"       example:"1"`
	Customizations []string `json:"customizations" example:"oat-milk"`
	// Ignored: prices always come from the menu.
	UnitPrice string `json:"unit_price,omitempty"`
}

// CreateOrderRequest is a cart snapshot submitted at checkout.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	ShopID string     `json:"shop_id" example:"blue-door"`
	Items  []CartItem `json:"items"`
	// Ignored: totals are recomputed server-side.
	Total string `json:"total,omitempty"`
}

// UpdateStatusRequest asks for a status transition.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"accepted"`
}

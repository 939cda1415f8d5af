package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// CanTransitionTo reports whether an order may move from its current status
// to target. A paid order never goes back to pending or failed; fulfilment
// only moves forward.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusFailed || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	default:
		return false
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusFailed
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// OrderItem records the unit price at time of purchase. It is never
// recomputed from the catalog afterwards.
type OrderItem struct {
	ProductID string      `json:"product_id"`
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	UnitPrice int64       `json:"unit_price"`
	Option    PriceOption `json:"price_option"`
}

type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Items            []OrderItem     `json:"items"`
	Subtotal         int64           `json:"subtotal"`
	ShippingFee      int64           `json:"shipping_fee"`
	Tax              int64           `json:"tax"`
	Total            int64           `json:"total"`
	Status           OrderStatus     `json:"status"`
	Platform         string          `json:"platform"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	MentorID         string          `json:"mentor_id,omitempty"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

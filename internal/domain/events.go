package domain

import "time"

// OrderPaidEvent is published after a payment signature verifies. Consumers
// use it to send the receipt email and kick off fulfilment.
type OrderPaidEvent struct {
	OrderID          string      `json:"order_id"`
	UserID           string      `json:"user_id"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Items            []OrderItem `json:"items"`
	Subtotal         int64       `json:"subtotal"`
	ShippingFee      int64       `json:"shipping_fee"`
	Tax              int64       `json:"tax"`
	Total            int64       `json:"total"`
	GatewayPaymentID string      `json:"gateway_payment_id"`
	Timestamp        time.Time   `json:"timestamp"`
}

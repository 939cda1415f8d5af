package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/domain"
	"github.com/buildunia/commerce/internal/payment"
)

var meter = otel.Meter("checkout")

// OrderStore is the persistence collaborator. It owns durable order state;
// the checkout only issues reads and writes against it.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error
	MarkPaid(ctx context.Context, id, gatewayPaymentID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// EventPublisher emits domain events after payment. A nil publisher
// disables events; nothing in the payment path depends on them.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	orders       OrderStore
	gateway      payment.Gateway
	gatewayKeyID string
	signer       *payment.Signer
	carts        *cart.Store
	sessions     *SessionStore
	producer     EventPublisher
	platform     string
	logger       *slog.Logger
	ordersPaid   metric.Int64Counter
}

func NewService(orders OrderStore, gateway payment.Gateway, gatewayKeyID string,
	signer *payment.Signer, carts *cart.Store, sessions *SessionStore,
	producer EventPublisher, logger *slog.Logger) *Service {
	ordersPaid, err := meter.Int64Counter("checkout.orders_paid",
		metric.WithDescription("Orders finalized through payment verification"))
	if err != nil {
		logger.Error("failed to create orders paid counter", "error", err)
	}
	return &Service{
		orders:       orders,
		gateway:      gateway,
		gatewayKeyID: gatewayKeyID,
		signer:       signer,
		carts:        carts,
		sessions:     sessions,
		producer:     producer,
		platform:     "buildunia",
		logger:       logger,
		ordersPaid:   ordersPaid,
	}
}

// PaymentIntent is everything the client needs to open the payment widget.
type PaymentIntent struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	GatewayKey     string `json:"gateway_key"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// BeginPayment runs the payment-entry action: price the cart, persist the
// pending order with its items, and obtain a gateway order handle. Each
// retry after a gateway failure creates a fresh order; the failed one stays
// behind as an audit row.
func (s *Service) BeginPayment(ctx context.Context, userID string) (*PaymentIntent, error) {
	session, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.Stage != StagePayment {
		return nil, ErrWrongStage
	}

	state, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(state.Lines) == 0 {
		return nil, errors.New("checkout: cart is empty")
	}
	if err := state.CheckLimits(); err != nil {
		return nil, err
	}

	quote := PriceCart(state)

	order := &domain.Order{
		UserID:          userID,
		Items:           orderItems(state),
		Subtotal:        quote.Subtotal,
		ShippingFee:     quote.Shipping,
		Tax:             quote.Tax,
		Total:           quote.Total,
		Status:          domain.OrderStatusPending,
		Platform:        s.platform,
		ShippingAddress: session.Shipping.ToAddress(),
		MentorID:        session.Shipping.MentorID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, quote.Total, "INR", order.ID)
	if err != nil {
		if _, failErr := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed); failErr != nil {
			s.logger.Error("failed to mark order failed after gateway error",
				"error", failErr, "order_id", order.ID)
		}
		return nil, fmt.Errorf("gateway order for %s: %w", order.ID, err)
	}

	if err := s.orders.SetGatewayOrder(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, fmt.Errorf("record gateway order: %w", err)
	}

	session.OrderID = order.ID
	if err := s.sessions.Save(ctx, userID, session); err != nil {
		return nil, err
	}

	s.logger.Info("payment initiated", "order_id", order.ID, "user_id", userID,
		"total", quote.Total, "gateway_order_id", gatewayOrder.ID)

	return &PaymentIntent{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		GatewayKey:     s.gatewayKeyID,
		Amount:         quote.Total,
		Currency:       "INR",
	}, nil
}

type VerifyRequest struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type VerifyResult struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"order_id"`
	PaymentStatus    string `json:"payment_status"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

// VerifyPayment checks the completion payload's signature and finalizes the
// order. A payload for an already paid order is a no-op success; a bad
// signature marks the order failed and is never retried for that attempt.
func (s *Service) VerifyPayment(ctx context.Context, userID string, req VerifyRequest) (*VerifyResult, error) {
	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	if order.Status == domain.OrderStatusPaid {
		s.logger.Info("duplicate verification for paid order ignored", "order_id", order.ID)
		return &VerifyResult{Success: true, OrderID: order.ID, PaymentStatus: "paid", AlreadyProcessed: true}, nil
	}

	genuine := order.GatewayOrderID == req.GatewayOrderID &&
		s.signer.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if !genuine {
		if _, failErr := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed); failErr != nil {
			s.logger.Error("failed to mark order failed after signature mismatch",
				"error", failErr, "order_id", order.ID)
		}
		s.logger.Warn("payment signature mismatch", "order_id", order.ID,
			"gateway_order_id", req.GatewayOrderID)
		return nil, ErrSignatureMismatch
	}

	transitioned, err := s.orders.MarkPaid(ctx, order.ID, req.GatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if !transitioned {
		// Lost a race with an identical payload; the first delivery already
		// did the work.
		return &VerifyResult{Success: true, OrderID: order.ID, PaymentStatus: "paid", AlreadyProcessed: true}, nil
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart after payment", "error", err, "user_id", userID)
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		s.logger.Error("failed to clear checkout session after payment", "error", err, "user_id", userID)
	}

	s.publishPaid(ctx, order, req.GatewayPaymentID)

	if s.ordersPaid != nil {
		s.ordersPaid.Add(ctx, 1)
	}
	s.logger.Info("order paid", "order_id", order.ID, "user_id", userID, "total", order.Total)
	return &VerifyResult{Success: true, OrderID: order.ID, PaymentStatus: "paid"}, nil
}

// publishPaid is fire-and-forget: the receipt email and fulfilment kick-off
// ride on this event, and neither may block or fail order finalization.
func (s *Service) publishPaid(ctx context.Context, order *domain.Order, gatewayPaymentID string) {
	if s.producer == nil {
		return
	}

	event := domain.OrderPaidEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		Email:            order.ShippingAddress.Email,
		Name:             order.ShippingAddress.Name,
		Items:            order.Items,
		Subtotal:         order.Subtotal,
		ShippingFee:      order.ShippingFee,
		Tax:              order.Tax,
		Total:            order.Total,
		GatewayPaymentID: gatewayPaymentID,
		Timestamp:        time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order paid event", "error", err, "order_id", order.ID)
	}
}

// DismissPayment records that the user closed the payment widget. The order
// stays pending and the payment action can simply be retried.
func (s *Service) DismissPayment(ctx context.Context, userID, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return ErrOrderNotFound
	}

	s.logger.Info("payment widget dismissed", "order_id", orderID, "user_id", userID,
		"status", order.Status)
	return nil
}

func orderItems(state cart.State) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(state.Lines))
	for _, line := range state.Lines {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Option:    line.Option,
		})
	}
	return items
}

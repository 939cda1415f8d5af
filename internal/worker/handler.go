package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buildunia/commerce/internal/domain"
)

// ReceiptHandler reacts to paid orders: it emails the customer a receipt
// and advances the order into fulfilment.
type ReceiptHandler struct {
	emailServiceURL string
	storefrontURL   string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewReceiptHandler(emailServiceURL, storefrontURL string, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		emailServiceURL: emailServiceURL,
		storefrontURL:   storefrontURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *ReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPaidEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order paid event: %w", err)
	}

	h.logger.Info("processing order paid event", "order_id", event.OrderID, "user_id", event.UserID)

	// Receipt delivery must never hold up fulfilment, so a failed send is
	// logged and the message is still committed.
	if err := h.sendReceipt(ctx, event); err != nil {
		h.logger.Error("failed to send receipt email", "error", err, "order_id", event.OrderID)
	}

	if err := h.startFulfilment(ctx, event.OrderID); err != nil {
		h.logger.Error("failed to start fulfilment", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("start fulfilment for order %s: %w", event.OrderID, err)
	}

	h.logger.Info("order paid processing complete", "order_id", event.OrderID)
	return nil
}

func (h *ReceiptHandler) sendReceipt(ctx context.Context, event domain.OrderPaidEvent) error {
	body := map[string]string{
		"to":      event.Email,
		"subject": "Your BuildUnia receipt for order " + event.OrderID,
		"body":    renderReceipt(event),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

func (h *ReceiptHandler) startFulfilment(ctx context.Context, orderID string) error {
	body := map[string]string{
		"status": string(domain.OrderStatusProcessing),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/orders/%s/status", h.storefrontURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront returned status %d", resp.StatusCode)
	}

	return nil
}

// renderReceipt builds the plain-text receipt body. Amounts are whole rupees.
func renderReceipt(event domain.OrderPaidEvent) string {
	var b strings.Builder

	name := event.Name
	if name == "" {
		name = "there"
	}

	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your purchase. Here is your receipt for order %s.\n\n", name, event.OrderID)

	for _, item := range event.Items {
		fmt.Fprintf(&b, "  %s x%d", item.Title, item.Quantity)
		if item.Option != "" {
			fmt.Fprintf(&b, " (%s)", item.Option)
		}
		fmt.Fprintf(&b, " - Rs. %d\n", item.UnitPrice*int64(item.Quantity))
	}

	fmt.Fprintf(&b, "\nSubtotal: Rs. %d\n", event.Subtotal)
	fmt.Fprintf(&b, "Shipping: Rs. %d\n", event.ShippingFee)
	fmt.Fprintf(&b, "Tax:      Rs. %d\n", event.Tax)
	fmt.Fprintf(&b, "Total:    Rs. %d\n", event.Total)
	fmt.Fprintf(&b, "\nPayment reference: %s\n\nThe BuildUnia team\n", event.GatewayPaymentID)

	return b.String()
}

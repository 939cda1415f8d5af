package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildunia/commerce/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paidEvent() domain.OrderPaidEvent {
	return domain.OrderPaidEvent{
		OrderID: "order-1",
		UserID:  "user-1",
		Email:   "asha@example.com",
		Name:    "Asha",
		Items: []domain.OrderItem{
			{ProductID: "p1", Title: "IoT Starter Kit", Quantity: 2, UnitPrice: 500, Option: domain.PriceOptionHardware},
		},
		Subtotal:         1000,
		ShippingFee:      10,
		Tax:              80,
		Total:            1090,
		GatewayPaymentID: "pay_123",
		Timestamp:        time.Now(),
	}
}

func TestHandleSendsReceiptAndStartsFulfilment(t *testing.T) {
	var emailBody map[string]string
	email := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("unexpected email path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&emailBody); err != nil {
			t.Fatalf("decode email body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer email.Close()

	var patchPath, patchStatus string
	storefront := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		patchPath = r.URL.Path
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode status body: %v", err)
		}
		patchStatus = body["status"]
		w.WriteHeader(http.StatusOK)
	}))
	defer storefront.Close()

	h := NewReceiptHandler(email.URL, storefront.URL, http.DefaultClient, testLogger())

	payload, _ := json.Marshal(paidEvent())
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if emailBody["to"] != "asha@example.com" {
		t.Errorf("receipt sent to %q, want asha@example.com", emailBody["to"])
	}
	if !strings.Contains(emailBody["subject"], "order-1") {
		t.Errorf("subject %q does not mention the order", emailBody["subject"])
	}
	for _, want := range []string{"IoT Starter Kit x2", "Subtotal: Rs. 1000", "Shipping: Rs. 10", "Tax:      Rs. 80", "Total:    Rs. 1090", "pay_123"} {
		if !strings.Contains(emailBody["body"], want) {
			t.Errorf("receipt body missing %q:\n%s", want, emailBody["body"])
		}
	}

	if patchPath != "/internal/orders/order-1/status" {
		t.Errorf("fulfilment PATCH hit %q", patchPath)
	}
	if patchStatus != "processing" {
		t.Errorf("fulfilment status %q, want processing", patchStatus)
	}
}

func TestHandleEmailFailureDoesNotBlockFulfilment(t *testing.T) {
	email := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer email.Close()

	patched := false
	storefront := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		patched = true
		w.WriteHeader(http.StatusOK)
	}))
	defer storefront.Close()

	h := NewReceiptHandler(email.URL, storefront.URL, http.DefaultClient, testLogger())

	payload, _ := json.Marshal(paidEvent())
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle returned error on email failure: %v", err)
	}
	if !patched {
		t.Error("fulfilment was not started after email failure")
	}
}

func TestHandleFulfilmentFailureReturnsError(t *testing.T) {
	email := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer email.Close()

	storefront := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer storefront.Close()

	h := NewReceiptHandler(email.URL, storefront.URL, http.DefaultClient, testLogger())

	payload, _ := json.Marshal(paidEvent())
	if err := h.Handle(context.Background(), payload); err == nil {
		t.Fatal("expected error when fulfilment kick-off fails")
	}
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	h := NewReceiptHandler("http://unused", "http://unused", http.DefaultClient, testLogger())
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

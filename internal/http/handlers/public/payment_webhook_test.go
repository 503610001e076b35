package public

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/provider"

	"github.com/gin-gonic/gin"
)

func newWebhookTestHandler(secret string) *Handler {
	cfg := &config.Config{}
	cfg.Payment.WebhookSecret = secret
	return &Handler{Container: &provider.Container{Config: cfg}}
}

func TestPaymentConfirmationRejectsMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newWebhookTestHandler("top-secret")

	req := httptest.NewRequest("POST", "/api/v1/payments/confirmations", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.PaymentConfirmation(c)

	var body struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body.StatusCode != 401 {
		t.Fatalf("expected status_code 401, got: %d", body.StatusCode)
	}
}

func TestPaymentConfirmationRejectsUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newWebhookTestHandler("")

	req := httptest.NewRequest("POST", "/api/v1/payments/confirmations", strings.NewReader(`{}`))
	req.Header.Set("X-Webhook-Secret", "anything")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.PaymentConfirmation(c)

	var body struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body.StatusCode != 500 {
		t.Fatalf("expected status_code 500, got: %d", body.StatusCode)
	}
}

func TestPaymentConfirmationRequestBind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	payload := `{"external_payment_ref":"pay-123","member_id":7,"offer_id":9,"amount_paid":"29.90"}`
	req := httptest.NewRequest("POST", "/api/v1/payments/confirmations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	var body PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		t.Fatalf("bind request failed: %v", err)
	}
	if body.ExternalPaymentRef != "pay-123" || body.MemberID != 7 || body.OfferID != 9 {
		t.Fatalf("unexpected bound request: %+v", body)
	}
	if body.AmountPaid.String() != "29.9" && body.AmountPaid.String() != "29.90" {
		t.Fatalf("unexpected amount: %s", body.AmountPaid.String())
	}
}

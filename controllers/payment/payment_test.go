package paymentControllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func post(handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/callback", handler)
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Malformed callbacks are rejected at binding, before the service runs.
func TestVerifyPaymentHandlerRejectsIncompleteCallback(t *testing.T) {
	cases := map[string]string{
		"empty":             `{}`,
		"missing signature": `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1"}`,
		"missing payment":   `{"razorpay_order_id":"order_1","razorpay_signature":"abc"}`,
		"not json":          `order_id=order_1`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(VerifyPaymentHandler(nil), body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestPaymentFailureHandlerRejectsMissingOrderID(t *testing.T) {
	w := post(PaymentFailureHandler(nil), `{"error":{"description":"card declined"}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

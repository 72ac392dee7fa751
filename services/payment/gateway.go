package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway abstracts the payment provider: order creation for single online
// payments and payment-link creation for split payments. Webhook payloads
// arrive separately and are authenticated by signature, not through this
// interface.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (string, error)
	CreatePaymentLink(ctx context.Context, amountPaise int64, email, description string) (string, error)
}

// RazorpayGateway implements Gateway against the Razorpay API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder creates a gateway order for the given amount in paise, tagged
// with the booking id as receipt.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return orderID, nil
}

// CreatePaymentLink creates a notify-by-email payment link for one payee of
// a split payment and returns its short URL, which doubles as the link
// reference matched on webhook delivery.
func (g *RazorpayGateway) CreatePaymentLink(ctx context.Context, amountPaise int64, email, description string) (string, error) {
	data := map[string]interface{}{
		"amount":      amountPaise,
		"currency":    "INR",
		"description": description,
		"customer": map[string]interface{}{
			"email": email,
		},
		"notify": map[string]interface{}{
			"email": true,
			"sms":   true,
		},
		"callback_method": "get",
	}
	link, err := g.client.PaymentLink.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create razorpay payment link: %w", err)
	}
	url, ok := link["short_url"].(string)
	if !ok || url == "" {
		return "", fmt.Errorf("razorpay payment link response missing short_url")
	}
	return url, nil
}

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signHex computes the hex-encoded HMAC-SHA256 of payload under secret.
func signHex(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks a client-submitted payment completion: the
// gateway signs "orderID|paymentID" with the shared key secret. Comparison
// is constant-time.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	expected := signHex(secret, orderID+"|"+paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the signature header of a webhook delivery
// against the HMAC of the raw request body under the webhook secret.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

package payment

// SignatureError reports a cryptographic signature mismatch on a payment
// completion or webhook delivery. Treated as a security event: logged,
// rejected, never retried.
type SignatureError struct {
	Message string
}

func (e *SignatureError) Error() string { return e.Message }

package models

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
	PaymentStatusOther             PaymentStatus = "other"
)

// NormalizePaymentStatus folds any status Stripe may add later into "other".
func NormalizePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case PaymentStatusPaid, PaymentStatusUnpaid, PaymentStatusNoPaymentRequired:
		return PaymentStatus(s)
	default:
		return PaymentStatusOther
	}
}

type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// PaymentVerification is the normalized view of a checkout session shown on
// the success page.
type PaymentVerification struct {
	SessionID     string            `json:"session_id"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata"`
	Created       int64             `json:"created"`
}

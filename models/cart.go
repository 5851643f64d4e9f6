package models

// CartItem is one brick selected by the donor. Price is in major currency
// units.
type CartItem struct {
	ID      string  `json:"id"`
	Section string  `json:"section"`
	Price   float64 `json:"price"`
}

// CreateSessionRequest is the body of POST /create-payment-session.
type CreateSessionRequest struct {
	Items    []CartItem     `json:"items"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

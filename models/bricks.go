package models

import "time"

// PurchaseRecord ties a checkout session to the number of bricks it
// sponsored. Written once per session.
type PurchaseRecord struct {
	SessionID string `json:"session" dynamodbav:"session_id"`
	Bricks    int64  `json:"bricks" dynamodbav:"bricks"`
}

type BrickStats struct {
	Total     int64 `json:"total"`
	Sponsored int64 `json:"sponsored"`
	Available int64 `json:"available"`
}

type PurchaseListing struct {
	Sponsored int64            `json:"sponsored"`
	Purchases []PurchaseRecord `json:"purchases"`
}

const DonationEventBricksSponsored = "bricks_sponsored"

// DonationEvent is published once a session's bricks have been counted.
type DonationEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	Bricks      int64     `json:"bricks"`
	AmountTotal int64     `json:"amount_total"` // smallest currency unit
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

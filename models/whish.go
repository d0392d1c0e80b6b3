package models

import "time"

// WhishRequest represents the request structure of the Whish payment API
type WhishRequest struct {
	Amount             *float64 `json:"amount,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Invoice            string   `json:"invoice,omitempty"`
	ExternalID         *int64   `json:"externalId,omitempty"`
	SuccessCallbackURL string   `json:"successCallbackUrl,omitempty"`
	FailureCallbackURL string   `json:"failureCallbackUrl,omitempty"`
	SuccessRedirectURL string   `json:"successRedirectUrl,omitempty"`
	FailureRedirectURL string   `json:"failureRedirectUrl,omitempty"`
}

// WhishResponse represents the envelope returned by the Whish API
type WhishResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"`   // string or null
	Dialog interface{}            `json:"dialog"` // string, object or null
	Extra  interface{}            `json:"extra"`
	Data   map[string]interface{} `json:"data"`
}

// Donation statuses, mirroring Whish collect statuses
const (
	DonationPending = "pending"
	DonationSuccess = "success"
	DonationFailed  = "failed"
)

// Donation is a contribution collected through Whish
type Donation struct {
	ID          string     `json:"id" bson:"_id"`
	MemberID    string     `json:"memberId" bson:"memberId"`
	Amount      float64    `json:"amount" bson:"amount"`
	Currency    string     `json:"currency" bson:"currency"`
	Invoice     string     `json:"invoice" bson:"invoice"`
	ExternalID  int64      `json:"externalId" bson:"externalId"`
	CollectURL  string     `json:"collectUrl,omitempty" bson:"collectUrl,omitempty"`
	Status      string     `json:"status" bson:"status"`
	PayerPhone  string     `json:"payerPhone,omitempty" bson:"payerPhone,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// DonationRequest is the body of POST /api/donations
type DonationRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,oneof=USD LBP"`
}

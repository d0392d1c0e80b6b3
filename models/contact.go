package models

import "time"

// ContactRequest is the body of the public contact form
type ContactRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullname"`
	Message  string `json:"message"`
	PhoneNo  string `json:"phoneNo"`
}

// ContactResponse is always returned with HTTP 200; Success carries the outcome
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ContactMessage is a stored contact form submission
type ContactMessage struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	FullName     string    `json:"fullname" bson:"fullName"`
	Message      string    `json:"message" bson:"message"`
	PhoneNo      string    `json:"phoneNo,omitempty" bson:"phoneNo,omitempty"`
	Acknowledged bool      `json:"acknowledged" bson:"acknowledged"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// DeliveryReceipt confirms a message was handed to the SMTP server
type DeliveryReceipt struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

package models

import "encoding/json"

// WalletTransferRequest is the body of POST /api/wallet/transfer. Amount
// accepts both JSON numbers and numeric strings coming from form inputs.
type WalletTransferRequest struct {
	Amount json.Number `json:"amount"`
}

// WalletTransferResponse tells the client the outcome and whether to reset
// its amount input
type WalletTransferResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ClearAmount bool   `json:"clearAmount"`
}

// WalletServiceRequest is the body sent to the balance service
type WalletServiceRequest struct {
	Amount float64 `json:"amount"`
}

// WalletServiceResponse is what the balance service answers
type WalletServiceResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

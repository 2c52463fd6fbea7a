package models

import "time"

// VerifyRequest binds a submitted claim transaction to the reference generated
// for the attempt.
type VerifyRequest struct {
	TransactionID string `json:"transactionId" binding:"required" validate:"required,max=256" example:"0x9f2c..."`
	Reference     string `json:"reference" binding:"required" validate:"required,max=128,printascii" example:"claim-1718000000000-3f1c2d7e"`
	UserAddress   string `json:"userAddress" binding:"required" validate:"required" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
}

type VerifyResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Claim transaction confirmed"`
}

type Status string

const (
	// StatusConfirmed means a receipt with status 1 was found.
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	// StatusPending means the hash is known to an endpoint but not yet mined,
	// or no endpoint has seen it yet.
	StatusPending Status = "pending"
	// StatusAccepted is used for identifiers that are not transaction hashes.
	StatusAccepted Status = "accepted"
)

// Final reports whether the status can no longer change.
func (s Status) Final() bool {
	return s == StatusConfirmed || s == StatusReverted
}

// VerificationRecord is stored per reference.
type VerificationRecord struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transactionId"`
	UserAddress   string    `json:"userAddress"`
	Status        Status    `json:"status"`
	Endpoint      string    `json:"endpoint,omitempty"`
	BlockNumber   uint64    `json:"blockNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ReceiptLookup is the result of asking the endpoint pool about a hash.
type ReceiptLookup struct {
	Status      Status
	Endpoint    string
	BlockNumber uint64
}

type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"Invalid or missing user address"`
	Code    string `json:"code" example:"INVALID_ADDRESS"`
	Details string `json:"details,omitempty"`
}

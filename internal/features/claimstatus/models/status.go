package models

import (
	"fmt"
	"time"

	"daily-claim-backend/internal/platform/evm"
)

// ContractSnapshot is one fresh read of the contract state for an address.
// It is produced per resolution and never mutated.
type ContractSnapshot struct {
	// LastClaimedAt is epoch seconds, 0 means the address never claimed.
	LastClaimedAt   int64
	CooldownSeconds int64
	// ClaimAmount and TokenBalance are decimal strings in whole-token units.
	ClaimAmount    string
	TokenBalance   string
	SourceEndpoint evm.Endpoint
}

// EligibilityResult is the claim decision derived from a snapshot.
type EligibilityResult struct {
	CanClaim        bool  `json:"canClaim"`
	NextClaimTime   int64 `json:"nextClaimTime"`
	TimeLeftSeconds int64 `json:"timeLeft"`
}

// Reason is the human readable explanation for an ineligible result.
func (e EligibilityResult) Reason() string {
	if e.CanClaim {
		return ""
	}
	return fmt.Sprintf("Next claim available in %s", time.Duration(e.TimeLeftSeconds)*time.Second)
}

// ClaimStatus is the body of GET /claim-status/{address}.
type ClaimStatus struct {
	Success       bool   `json:"success" example:"true"`
	Address       string `json:"address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	LastClaimed   int64  `json:"lastClaimed" example:"0"`
	CanClaim      bool   `json:"canClaim" example:"true"`
	NextClaimTime int64  `json:"nextClaimTime" example:"0"`
	TimeLeft      int64  `json:"timeLeft" example:"0"`
	ClaimAmount   string `json:"claimAmount" example:"1"`
	Balance       string `json:"balance" example:"12.5"`
	EndpointUsed  string `json:"endpointUsed" example:"https://worldchain.drpc.org"`
	Reason        string `json:"reason,omitempty" example:"Next claim available in 3h12m0s"`
}

// ErrorResponse documents the failure body for swagger.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"Invalid or missing user address"`
	Code    string `json:"code" example:"INVALID_ADDRESS"`
	Details string `json:"details,omitempty"`
}

package service

import (
	"math"
	"time"

	"daily-claim-backend/internal/features/claimstatus/models"
)

// Evaluate turns a snapshot into a claim decision at now. It performs no I/O.
// LastClaimedAt == 0 is the never-claimed sentinel and is always eligible.
func Evaluate(snapshot models.ContractSnapshot, now time.Time) models.EligibilityResult {
	if snapshot.LastClaimedAt == 0 {
		return models.EligibilityResult{CanClaim: true}
	}

	next := NextClaimTime(snapshot.LastClaimedAt, snapshot.CooldownSeconds)
	current := now.Unix()
	if current >= next {
		return models.EligibilityResult{CanClaim: true, NextClaimTime: next}
	}
	return models.EligibilityResult{
		CanClaim:        false,
		NextClaimTime:   next,
		TimeLeftSeconds: next - current,
	}
}

// NextClaimTime is lastClaimed + cooldown, saturated at math.MaxInt64.
func NextClaimTime(lastClaimed, cooldown int64) int64 {
	if cooldown > math.MaxInt64-lastClaimed {
		return math.MaxInt64
	}
	return lastClaimed + cooldown
}

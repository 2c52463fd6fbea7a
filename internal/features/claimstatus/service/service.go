package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/validation"
	"daily-claim-backend/internal/features/claimstatus/models"
)

// SnapshotResolver reads a fresh ContractSnapshot for an address.
type SnapshotResolver interface {
	Resolve(ctx context.Context, user common.Address) (*models.ContractSnapshot, error)
}

// StatusService answers "can this address claim now?".
type StatusService interface {
	GetStatus(ctx context.Context, address string) (*models.ClaimStatus, error)
}

type statusService struct {
	resolver SnapshotResolver
	now      func() time.Time
}

func NewStatusService(resolver SnapshotResolver) StatusService {
	return &statusService{resolver: resolver, now: time.Now}
}

// GetStatus rejects malformed addresses before any I/O.
func (s *statusService) GetStatus(ctx context.Context, address string) (*models.ClaimStatus, error) {
	if !validation.IsValidAddress(address) {
		return nil, errors.NewInvalidAddressError(address)
	}

	snapshot, err := s.resolver.Resolve(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	result := Evaluate(*snapshot, s.now())
	return &models.ClaimStatus{
		Success:       true,
		Address:       address,
		LastClaimed:   snapshot.LastClaimedAt,
		CanClaim:      result.CanClaim,
		NextClaimTime: result.NextClaimTime,
		TimeLeft:      result.TimeLeftSeconds,
		ClaimAmount:   snapshot.ClaimAmount,
		Balance:       snapshot.TokenBalance,
		EndpointUsed:  string(snapshot.SourceEndpoint),
		Reason:        result.Reason(),
	}, nil
}

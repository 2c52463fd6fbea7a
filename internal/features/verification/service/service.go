package service

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/validation"
	"daily-claim-backend/internal/features/verification/models"
	"daily-claim-backend/internal/features/verification/repository"
)

// ReceiptLookuper resolves the on-chain state of a transaction hash.
type ReceiptLookuper interface {
	Lookup(ctx context.Context, hash common.Hash) (*models.ReceiptLookup, error)
}

type Service interface {
	Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerifyResponse, error)
}

type service struct {
	repo     repository.Repository
	receipts ReceiptLookuper
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo repository.Repository, receipts ReceiptLookuper, logger zerolog.Logger) Service {
	return &service{repo: repo, receipts: receipts, logger: logger, now: time.Now}
}

// Verify is idempotent per reference: the first transaction bound to a
// reference keeps it, and a final status is never looked up again.
func (s *service) Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerifyResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "Invalid verification request")
	}
	if !validation.IsValidAddress(req.UserAddress) {
		return nil, errors.NewInvalidAddressError(req.UserAddress)
	}
	address := validation.NormalizeAddress(req.UserAddress)

	existing, err := s.repo.Get(ctx, req.Reference)
	if err != nil {
		return nil, errors.NewCacheError("get verification", err)
	}
	if existing != nil {
		return s.revisit(ctx, existing, req.TransactionID, address)
	}

	now := s.now()
	record := &models.VerificationRecord{
		Reference:     req.Reference,
		TransactionID: req.TransactionID,
		UserAddress:   address,
		Status:        models.StatusAccepted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.refresh(ctx, record)

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, errors.NewCacheError("create verification", err)
	}
	if !created {
		existing, err := s.repo.Get(ctx, req.Reference)
		if err != nil {
			return nil, errors.NewCacheError("get verification", err)
		}
		if existing != nil {
			return s.outcome(existing, req.TransactionID, address), nil
		}
	}

	s.logger.Info().
		Str("reference", record.Reference).
		Str("address", address).
		Str("status", string(record.Status)).
		Msg("Claim verification recorded")
	return s.outcome(record, req.TransactionID, address), nil
}

func (s *service) revisit(ctx context.Context, record *models.VerificationRecord, txID, address string) (*models.VerifyResponse, error) {
	if !s.matches(record, txID, address) || record.Status != models.StatusPending {
		return s.outcome(record, txID, address), nil
	}

	s.refresh(ctx, record)
	if record.Status != models.StatusPending {
		record.UpdatedAt = s.now()
		if err := s.repo.Save(ctx, record); err != nil {
			return nil, errors.NewCacheError("save verification", err)
		}
	}
	return s.outcome(record, txID, address), nil
}

// refresh updates the record from the chain when its identifier is a
// transaction hash. Lookup failures leave the record pending.
func (s *service) refresh(ctx context.Context, record *models.VerificationRecord) {
	hash, ok := transactionHash(record.TransactionID)
	if !ok {
		return
	}

	lookup, err := s.receipts.Lookup(ctx, hash)
	if err != nil {
		s.logger.Warn().
			Str("reference", record.Reference).
			Str("tx_hash", hash.Hex()).
			Err(err).
			Msg("Receipt lookup failed, leaving claim pending")
		record.Status = models.StatusPending
		return
	}

	record.Status = lookup.Status
	record.Endpoint = lookup.Endpoint
	record.BlockNumber = lookup.BlockNumber
}

func (s *service) matches(record *models.VerificationRecord, txID, address string) bool {
	return strings.EqualFold(record.TransactionID, txID) && record.UserAddress == address
}

func (s *service) outcome(record *models.VerificationRecord, txID, address string) *models.VerifyResponse {
	if !s.matches(record, txID, address) {
		return &models.VerifyResponse{Success: false, Message: "Reference is already bound to a different transaction"}
	}

	switch record.Status {
	case models.StatusConfirmed:
		return &models.VerifyResponse{Success: true, Message: "Claim transaction confirmed"}
	case models.StatusReverted:
		return &models.VerifyResponse{Success: false, Message: "Claim transaction reverted on-chain"}
	case models.StatusPending:
		return &models.VerifyResponse{Success: true, Message: "Claim transaction submitted, awaiting confirmation"}
	default:
		return &models.VerifyResponse{Success: true, Message: "Claim recorded, awaiting confirmation"}
	}
}

func transactionHash(id string) (common.Hash, bool) {
	b, err := hexutil.Decode(id)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}

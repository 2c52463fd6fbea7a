package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"daily-claim-backend/internal/features/verification/models"
	"daily-claim-backend/internal/features/verification/repository"
	platformredis "daily-claim-backend/internal/platform/redis"
)

const (
	keyPrefixVerification = "claim:verification:"
	recordExpiration      = 7 * 24 * time.Hour
)

type Repository struct {
	client platformredis.Commands
}

func NewRepository(client platformredis.Commands) repository.Repository {
	return &Repository{client: client}
}

func key(reference string) string {
	return keyPrefixVerification + reference
}

func (r *Repository) Create(ctx context.Context, record *models.VerificationRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal verification record: %w", err)
	}

	created, err := r.client.SetNX(ctx, key(record.Reference), data, recordExpiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create verification record: %w", err)
	}
	return created, nil
}

func (r *Repository) Save(ctx context.Context, record *models.VerificationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal verification record: %w", err)
	}

	return r.client.Set(ctx, key(record.Reference), data, recordExpiration).Err()
}

func (r *Repository) Get(ctx context.Context, reference string) (*models.VerificationRecord, error) {
	data, err := r.client.Get(ctx, key(reference)).Bytes()
	if platformredis.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification record: %w", err)
	}

	var record models.VerificationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification record: %w", err)
	}

	return &record, nil
}

package repository

import (
	"context"

	"daily-claim-backend/internal/features/verification/models"
)

type Repository interface {
	// Create stores the record only if its reference is unused. It reports
	// whether the record was created.
	Create(ctx context.Context, record *models.VerificationRecord) (bool, error)

	// Save overwrites the record for its reference.
	Save(ctx context.Context, record *models.VerificationRecord) error

	// Get returns nil, nil for an unknown reference.
	Get(ctx context.Context, reference string) (*models.VerificationRecord, error)
}

package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
)

type recoveryJobStore struct {
	queries *sqlc.Queries
}

func newRecoveryJobStore(queries *sqlc.Queries) RecoveryJobStore {
	return &recoveryJobStore{queries: queries}
}

func (s *recoveryJobStore) Create(ctx context.Context, job *model.RecoveryJob) error {
	row, err := s.queries.CreateRecoveryJob(ctx, sqlc.CreateRecoveryJobParams{
		ID:                     job.ID,
		OrganizationExternalID: job.OrganizationExternalID,
		Bundle:                 job.Bundle,
	})
	if err != nil {
		return mapErr(err)
	}
	*job = *toRecoveryJobModel(row)
	return nil
}

func (s *recoveryJobStore) GetByID(ctx context.Context, id int64) (*model.RecoveryJob, error) {
	row, err := s.queries.GetRecoveryJob(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecoveryJobModel(row), nil
}

// Claim marks the job processing and bumps its attempt counter. Completed jobs
// are not claimable and return ErrNotFound.
func (s *recoveryJobStore) Claim(ctx context.Context, id int64) (*model.RecoveryJob, error) {
	row, err := s.queries.ClaimRecoveryJob(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecoveryJobModel(row), nil
}

func (s *recoveryJobStore) Complete(ctx context.Context, id int64) error {
	return s.queries.CompleteRecoveryJob(ctx, id)
}

func (s *recoveryJobStore) Fail(ctx context.Context, id int64, errMsg string) error {
	return s.queries.FailRecoveryJob(ctx, sqlc.FailRecoveryJobParams{
		ID:        id,
		LastError: &errMsg,
	})
}

func toRecoveryJobModel(row sqlc.RecoveryJob) *model.RecoveryJob {
	return &model.RecoveryJob{
		ID:                     row.ID,
		OrganizationExternalID: row.OrganizationExternalID,
		Status:                 model.RecoveryJobStatus(row.Status),
		Bundle:                 row.Bundle,
		Attempts:               row.Attempts,
		LastError:              row.LastError,
		CreatedAt:              row.CreatedAt.Time,
		UpdatedAt:              row.UpdatedAt.Time,
		CompletedAt:            fromTimestamptz(row.CompletedAt),
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

type invitationStore struct {
	queries *sqlc.Queries
}

func newInvitationStore(queries *sqlc.Queries) InvitationStore {
	return &invitationStore{queries: queries}
}

func (s *invitationStore) Create(ctx context.Context, inv *model.Invitation) error {
	row, err := s.queries.CreateInvitation(ctx, sqlc.CreateInvitationParams{
		ID:             inv.ID,
		Token:          inv.Token,
		Email:          inv.Email,
		Role:           string(inv.Role),
		ProjectID:      inv.ProjectID,
		OrganizationID: inv.OrganizationID,
		InvitedBy:      inv.InvitedBy,
		Status:         string(inv.Status),
		ExpiresAt:      pgtype.Timestamptz{Time: inv.ExpiresAt, Valid: true},
		ExternalID:     inv.ExternalID,
	})
	if err != nil {
		return mapErr(err)
	}
	return assignInvitation(inv, row)
}

func (s *invitationStore) GetByID(ctx context.Context, id int64) (*model.Invitation, error) {
	row, err := s.queries.GetInvitationByID(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	row, err := s.queries.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) GetByExternalID(ctx context.Context, externalID string) (*model.Invitation, error) {
	row, err := s.queries.GetInvitationByExternalID(ctx, &externalID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) FindPending(ctx context.Context, email string, orgID *int64, now time.Time) (*model.Invitation, error) {
	row, err := s.queries.FindPendingInvitation(ctx, sqlc.FindPendingInvitationParams{
		Email:          email,
		OrganizationID: orgID,
		Now:            pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) Accept(ctx context.Context, id int64, acceptedBy *int64, at time.Time, metadata *model.AcceptMetadata) (*model.Invitation, error) {
	var raw []byte
	if metadata != nil {
		var err error
		if raw, err = json.Marshal(metadata); err != nil {
			return nil, fmt.Errorf("encoding accept metadata: %w", err)
		}
	}

	row, err := s.queries.AcceptInvitation(ctx, sqlc.AcceptInvitationParams{
		ID:             id,
		AcceptedAt:     pgtype.Timestamptz{Time: at, Valid: true},
		AcceptedBy:     acceptedBy,
		AcceptMetadata: raw,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) Revoke(ctx context.Context, id int64, revokedBy *int64, reason *string, at time.Time) (*model.Invitation, error) {
	row, err := s.queries.RevokeInvitation(ctx, sqlc.RevokeInvitationParams{
		ID:           id,
		RevokedAt:    pgtype.Timestamptz{Time: at, Valid: true},
		RevokedBy:    revokedBy,
		RevokeReason: reason,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) Cancel(ctx context.Context, id int64) (*model.Invitation, error) {
	row, err := s.queries.CancelInvitation(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) Expire(ctx context.Context, id int64) (*model.Invitation, error) {
	row, err := s.queries.ExpireInvitation(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row)
}

func (s *invitationStore) ExpireLapsedPending(ctx context.Context, email string, orgID *int64, now time.Time) ([]model.Invitation, error) {
	rows, err := s.queries.ExpireLapsedPendingInvitations(ctx, sqlc.ExpireLapsedPendingInvitationsParams{
		Email:          email,
		OrganizationID: orgID,
		Now:            pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModels(rows)
}

func (s *invitationStore) ExpireStale(ctx context.Context, now time.Time) ([]model.Invitation, error) {
	rows, err := s.queries.ExpireStaleInvitations(ctx, pgtype.Timestamptz{Time: now, Valid: true})
	if err != nil {
		return nil, err
	}
	return toInvitationModels(rows)
}

func (s *invitationStore) ListByOrganization(ctx context.Context, orgID int64) ([]model.Invitation, error) {
	rows, err := s.queries.ListInvitationsByOrganization(ctx, &orgID)
	if err != nil {
		return nil, err
	}
	return toInvitationModels(rows)
}

func (s *invitationStore) SetExternalID(ctx context.Context, id int64, externalID string) error {
	return mapErr(s.queries.SetInvitationExternalID(ctx, sqlc.SetInvitationExternalIDParams{
		ID:         id,
		ExternalID: &externalID,
	}))
}

func assignInvitation(dst *model.Invitation, row sqlc.Invitation) error {
	inv, err := toInvitationModel(row)
	if err != nil {
		return err
	}
	*dst = *inv
	return nil
}

func toInvitationModel(row sqlc.Invitation) (*model.Invitation, error) {
	inv := &model.Invitation{
		ID:             row.ID,
		Token:          row.Token,
		Email:          row.Email,
		Role:           model.AccountRole(row.Role),
		ProjectID:      row.ProjectID,
		OrganizationID: row.OrganizationID,
		InvitedBy:      row.InvitedBy,
		Status:         model.InvitationStatus(row.Status),
		ExpiresAt:      row.ExpiresAt.Time,
		AcceptedAt:     fromTimestamptz(row.AcceptedAt),
		AcceptedBy:     row.AcceptedBy,
		RevokedAt:      fromTimestamptz(row.RevokedAt),
		RevokedBy:      row.RevokedBy,
		RevokeReason:   row.RevokeReason,
		ExternalID:     row.ExternalID,
		CreatedAt:      row.CreatedAt.Time,
	}
	if len(row.AcceptMetadata) > 0 {
		var meta model.AcceptMetadata
		if err := json.Unmarshal(row.AcceptMetadata, &meta); err != nil {
			return nil, fmt.Errorf("decoding accept metadata for invitation %d: %w", row.ID, err)
		}
		inv.AcceptMetadata = &meta
	}
	return inv, nil
}

func toInvitationModels(rows []sqlc.Invitation) ([]model.Invitation, error) {
	result := make([]model.Invitation, len(rows))
	for i, row := range rows {
		inv, err := toInvitationModel(row)
		if err != nil {
			return nil, err
		}
		result[i] = *inv
	}
	return result, nil
}

package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
)

type membershipStore struct {
	queries *sqlc.Queries
}

func newMembershipStore(queries *sqlc.Queries) MembershipStore {
	return &membershipStore{queries: queries}
}

// Upsert inserts the membership or updates the role of the existing
// (organization, account) pair. The ID is only used on insert.
func (s *membershipStore) Upsert(ctx context.Context, membership *model.Membership) error {
	row, err := s.queries.UpsertMembership(ctx, sqlc.UpsertMembershipParams{
		ID:             membership.ID,
		OrganizationID: membership.OrganizationID,
		AccountID:      membership.AccountID,
		Role:           string(membership.Role),
	})
	if err != nil {
		return mapErr(err)
	}
	*membership = *toMembershipModel(row)
	return nil
}

func (s *membershipStore) Get(ctx context.Context, orgID, accountID int64) (*model.Membership, error) {
	row, err := s.queries.GetMembership(ctx, sqlc.GetMembershipParams{
		OrganizationID: orgID,
		AccountID:      accountID,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toMembershipModel(row), nil
}

func (s *membershipStore) IsMemberByEmail(ctx context.Context, orgID int64, email string) (bool, error) {
	return s.queries.IsOrganizationMemberByEmail(ctx, sqlc.IsOrganizationMemberByEmailParams{
		OrganizationID: orgID,
		Email:          email,
	})
}

func (s *membershipStore) ListByOrganization(ctx context.Context, orgID int64) ([]model.Membership, error) {
	rows, err := s.queries.ListMembershipsByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Membership, len(rows))
	for i, row := range rows {
		result[i] = *toMembershipModel(row)
	}
	return result, nil
}

func toMembershipModel(row sqlc.OrganizationMembership) *model.Membership {
	return &model.Membership{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		AccountID:      row.AccountID,
		Role:           model.MembershipRole(row.Role),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

type roleAssignmentStore struct {
	queries *sqlc.Queries
}

func newRoleAssignmentStore(queries *sqlc.Queries) RoleAssignmentStore {
	return &roleAssignmentStore{queries: queries}
}

func (s *roleAssignmentStore) Create(ctx context.Context, ra *model.RoleAssignment) error {
	row, err := s.queries.CreateRoleAssignment(ctx, sqlc.CreateRoleAssignmentParams{
		ID:            ra.ID,
		AccountID:     ra.AccountID,
		Role:          string(ra.Role),
		AssignedBy:    ra.AssignedBy,
		ProjectID:     ra.ProjectID,
		Reason:        ra.Reason,
		EffectiveFrom: pgtype.Timestamptz{Time: ra.EffectiveFrom, Valid: true},
	})
	if err != nil {
		return mapErr(err)
	}
	*ra = toRoleAssignmentModel(row)
	return nil
}

func (s *roleAssignmentStore) ListByAccount(ctx context.Context, accountID int64) ([]model.RoleAssignment, error) {
	rows, err := s.queries.ListRoleAssignmentsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	result := make([]model.RoleAssignment, len(rows))
	for i, row := range rows {
		result[i] = toRoleAssignmentModel(row)
	}
	return result, nil
}

func toRoleAssignmentModel(row sqlc.RoleAssignment) model.RoleAssignment {
	return model.RoleAssignment{
		ID:            row.ID,
		AccountID:     row.AccountID,
		Role:          model.AccountRole(row.Role),
		AssignedBy:    row.AssignedBy,
		ProjectID:     row.ProjectID,
		Reason:        row.Reason,
		EffectiveFrom: row.EffectiveFrom.Time,
		CreatedAt:     row.CreatedAt.Time,
	}
}

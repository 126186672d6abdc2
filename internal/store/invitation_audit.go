package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
)

type invitationAuditStore struct {
	queries *sqlc.Queries
}

func newInvitationAuditStore(queries *sqlc.Queries) InvitationAuditStore {
	return &invitationAuditStore{queries: queries}
}

func (s *invitationAuditStore) Record(ctx context.Context, entry *model.InvitationAuditEntry) error {
	metadata := []byte(entry.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	row, err := s.queries.CreateInvitationAuditEntry(ctx, sqlc.CreateInvitationAuditEntryParams{
		ID:           entry.ID,
		InvitationID: entry.InvitationID,
		Action:       string(entry.Action),
		ActorID:      entry.ActorID,
		Metadata:     metadata,
	})
	if err != nil {
		return mapErr(err)
	}
	*entry = toAuditModel(row)
	return nil
}

func (s *invitationAuditStore) ListByInvitation(ctx context.Context, invitationID int64) ([]model.InvitationAuditEntry, error) {
	rows, err := s.queries.ListInvitationAuditEntries(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	result := make([]model.InvitationAuditEntry, len(rows))
	for i, row := range rows {
		result[i] = toAuditModel(row)
	}
	return result, nil
}

func toAuditModel(row sqlc.InvitationAuditLog) model.InvitationAuditEntry {
	return model.InvitationAuditEntry{
		ID:           row.ID,
		InvitationID: row.InvitationID,
		Action:       model.AuditAction(row.Action),
		ActorID:      row.ActorID,
		Metadata:     row.Metadata,
		CreatedAt:    row.CreatedAt.Time,
	}
}

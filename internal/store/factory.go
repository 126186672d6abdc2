package store

import (
	"database/sql"

	"funnelhq.app/portal/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
	sqlDB   *sql.DB
}

// NewStores builds stores over sqlc queries. sqlDB backs the cascade store and
// may be nil for transaction-scoped stores that never run deletions.
func NewStores(queries *sqlc.Queries, sqlDB *sql.DB) *Stores {
	return &Stores{queries: queries, sqlDB: sqlDB}
}

func (s *Stores) Accounts() AccountStore {
	return newAccountStore(s.queries)
}

func (s *Stores) Organizations() OrganizationStore {
	return newOrganizationStore(s.queries)
}

func (s *Stores) Memberships() MembershipStore {
	return newMembershipStore(s.queries)
}

func (s *Stores) Invitations() InvitationStore {
	return newInvitationStore(s.queries)
}

func (s *Stores) InvitationAudit() InvitationAuditStore {
	return newInvitationAuditStore(s.queries)
}

func (s *Stores) RoleAssignments() RoleAssignmentStore {
	return newRoleAssignmentStore(s.queries)
}

func (s *Stores) Clients() ClientStore {
	return newClientStore(s.queries)
}

func (s *Stores) RecoveryJobs() RecoveryJobStore {
	return newRecoveryJobStore(s.queries)
}

func (s *Stores) Cascade() CascadeStore {
	return NewCascadeStore(s.sqlDB)
}

package service

import (
	"context"

	"funnelhq.app/portal/core/db"
	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Accounts() store.AccountStore
	Organizations() store.OrganizationStore
	Memberships() store.MembershipStore
	Invitations() store.InvitationStore
	InvitationAudit() store.InvitationAuditStore
	RoleAssignments() store.RoleAssignmentStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		stores := store.NewStores(q, nil)
		return fn(stores)
	})
}

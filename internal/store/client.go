package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
)

type clientStore struct {
	queries *sqlc.Queries
}

func newClientStore(queries *sqlc.Queries) ClientStore {
	return &clientStore{queries: queries}
}

func (s *clientStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.queries.ClientExistsByEmail(ctx, email)
}

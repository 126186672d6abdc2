package store

import (
	"context"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
)

type accountStore struct {
	queries *sqlc.Queries
}

func newAccountStore(queries *sqlc.Queries) AccountStore {
	return &accountStore{queries: queries}
}

func (s *accountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row, err := s.queries.GetAccount(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toAccountModel(row), nil
}

func (s *accountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row, err := s.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, mapErr(err)
	}
	return toAccountModel(row), nil
}

func (s *accountStore) GetByExternalID(ctx context.Context, externalID string) (*model.Account, error) {
	row, err := s.queries.GetAccountByExternalID(ctx, &externalID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toAccountModel(row), nil
}

func (s *accountStore) Create(ctx context.Context, account *model.Account) error {
	row, err := s.queries.CreateAccount(ctx, sqlc.CreateAccountParams{
		ID:               account.ID,
		ExternalID:       account.ExternalID,
		Email:            account.Email,
		Name:             account.Name,
		AvatarUrl:        account.AvatarURL,
		Role:             string(account.Role),
		SubscriptionPlan: account.SubscriptionPlan,
		IsActive:         account.IsActive,
		LastLoginAt:      toTimestamptz(account.LastLoginAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*account = *toAccountModel(row)
	return nil
}

func (s *accountStore) Update(ctx context.Context, account *model.Account) error {
	row, err := s.queries.UpdateAccount(ctx, sqlc.UpdateAccountParams{
		ID:               account.ID,
		ExternalID:       account.ExternalID,
		Email:            account.Email,
		Name:             account.Name,
		AvatarUrl:        account.AvatarURL,
		Role:             string(account.Role),
		SubscriptionPlan: account.SubscriptionPlan,
		IsActive:         account.IsActive,
		LastLoginAt:      toTimestamptz(account.LastLoginAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*account = *toAccountModel(row)
	return nil
}

func (s *accountStore) DeactivateByEmail(ctx context.Context, email string) error {
	n, err := s.queries.DeactivateAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *accountStore) FindSuccessorAdmin(ctx context.Context, accountID int64) (int64, error) {
	id, err := s.queries.FindSuccessorAdmin(ctx, accountID)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

func toAccountModel(row sqlc.Account) *model.Account {
	return &model.Account{
		ID:               row.ID,
		ExternalID:       row.ExternalID,
		Email:            row.Email,
		Name:             row.Name,
		AvatarURL:        row.AvatarUrl,
		Role:             model.AccountRole(row.Role),
		SubscriptionPlan: row.SubscriptionPlan,
		IsActive:         row.IsActive,
		LastLoginAt:      fromTimestamptz(row.LastLoginAt),
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}

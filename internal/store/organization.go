package store

import (
	"context"
	"encoding/json"
	"fmt"

	"funnelhq.app/portal/core/db/sqlc"
	"funnelhq.app/portal/internal/model"
)

type organizationStore struct {
	queries *sqlc.Queries
}

func newOrganizationStore(queries *sqlc.Queries) OrganizationStore {
	return &organizationStore{queries: queries}
}

func (s *organizationStore) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	row, err := s.queries.GetOrganization(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toOrganizationModel(row)
}

func (s *organizationStore) GetByExternalID(ctx context.Context, externalID string) (*model.Organization, error) {
	row, err := s.queries.GetOrganizationByExternalID(ctx, externalID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toOrganizationModel(row)
}

func (s *organizationStore) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	row, err := s.queries.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return nil, mapErr(err)
	}
	return toOrganizationModel(row)
}

func (s *organizationStore) Create(ctx context.Context, org *model.Organization) error {
	features, err := json.Marshal(org.Features)
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}

	row, err := s.queries.CreateOrganization(ctx, sqlc.CreateOrganizationParams{
		ID:          org.ID,
		ExternalID:  org.ExternalID,
		Name:        org.Name,
		Slug:        org.Slug,
		Plan:        org.Plan,
		TrialEndsAt: toTimestamptz(org.TrialEndsAt),
		CreatedBy:   org.CreatedBy,
		Features:    features,
	})
	if err != nil {
		return mapErr(err)
	}

	created, err := toOrganizationModel(row)
	if err != nil {
		return err
	}
	*org = *created
	return nil
}

func (s *organizationStore) Update(ctx context.Context, org *model.Organization) error {
	features, err := json.Marshal(org.Features)
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}

	row, err := s.queries.UpdateOrganization(ctx, sqlc.UpdateOrganizationParams{
		ID:          org.ID,
		Name:        org.Name,
		Plan:        org.Plan,
		TrialEndsAt: toTimestamptz(org.TrialEndsAt),
		CreatedBy:   org.CreatedBy,
		Features:    features,
	})
	if err != nil {
		return mapErr(err)
	}

	updated, err := toOrganizationModel(row)
	if err != nil {
		return err
	}
	*org = *updated
	return nil
}

func toOrganizationModel(row sqlc.Organization) (*model.Organization, error) {
	org := &model.Organization{
		ID:          row.ID,
		ExternalID:  row.ExternalID,
		Name:        row.Name,
		Slug:        row.Slug,
		Plan:        row.Plan,
		TrialEndsAt: fromTimestamptz(row.TrialEndsAt),
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	if len(row.Features) > 0 {
		if err := json.Unmarshal(row.Features, &org.Features); err != nil {
			return nil, fmt.Errorf("decoding features for organization %d: %w", row.ID, err)
		}
	}
	return org, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"funnelhq.app/portal/common"
	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/store"
)

// upsertAttempts bounds the read-insert loop when inserts keep losing unique races.
const upsertAttempts = 3

// AccountFields are the account columns an upsert may set. Nil fields are left
// untouched on update. DefaultRole only applies when the row is inserted.
type AccountFields struct {
	ExternalID  *string
	Name        *string
	AvatarURL   *string
	LastLoginAt *time.Time
	IsActive    *bool
	DefaultRole model.AccountRole
}

// OrganizationFields are the organization columns an upsert may set. Plan,
// trial and features are insert-only defaults.
type OrganizationFields struct {
	Name      *string
	Slug      *string
	CreatedBy *int64
}

// UpsertGateway writes accounts and organizations by natural key so that
// redelivered events converge on the same row.
type UpsertGateway interface {
	UpsertAccount(ctx context.Context, email string, fields AccountFields) (*model.Account, bool, error)
	UpsertOrganization(ctx context.Context, externalID string, fields OrganizationFields) (*model.Organization, bool, error)
}

type upsertGateway struct {
	accounts store.AccountStore
	orgs     store.OrganizationStore
	now      func() time.Time
}

func NewUpsertGateway(accounts store.AccountStore, orgs store.OrganizationStore) UpsertGateway {
	return &upsertGateway{accounts: accounts, orgs: orgs, now: time.Now}
}

func (g *upsertGateway) UpsertAccount(ctx context.Context, email string, fields AccountFields) (*model.Account, bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, false, ErrEmailRequired
	}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := g.findAccount(ctx, email, fields.ExternalID)
		if err == nil {
			changed := applyAccountFields(existing, fields)
			if existing.Email != email {
				existing.Email = email
				changed = true
			}
			if !changed {
				return existing, false, nil
			}
			if err := g.accounts.Update(ctx, existing); err != nil {
				return nil, false, fmt.Errorf("updating account %d: %w", existing.ID, err)
			}
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("looking up account: %w", err)
		}

		account := newAccount(email, fields)
		err = g.accounts.Create(ctx, account)
		if err == nil {
			slog.InfoContext(ctx, "account created", "account_id", account.ID, "role", account.Role)
			return account, true, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, false, fmt.Errorf("creating account: %w", err)
		}

		slog.DebugContext(ctx, "account insert lost race, re-reading", "attempt", attempt+1)
	}

	return nil, false, fmt.Errorf("upserting account: %w", store.ErrConflict)
}

// findAccount looks up by email and then by external id, so a row created
// under an older address is still found.
func (g *upsertGateway) findAccount(ctx context.Context, email string, externalID *string) (*model.Account, error) {
	account, err := g.accounts.GetByEmail(ctx, email)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return account, err
	}
	if externalID == nil || *externalID == "" {
		return nil, store.ErrNotFound
	}
	return g.accounts.GetByExternalID(ctx, *externalID)
}

func newAccount(email string, fields AccountFields) *model.Account {
	role := fields.DefaultRole
	if !role.Valid() {
		role = model.AccountRoleAdmin
	}

	account := &model.Account{
		ID:               id.New(),
		Email:            email,
		Role:             role,
		SubscriptionPlan: model.DefaultSubscriptionPlan,
		IsActive:         true,
	}
	applyAccountFields(account, fields)
	return account
}

// applyAccountFields copies non-nil fields and reports whether anything changed.
func applyAccountFields(account *model.Account, fields AccountFields) bool {
	changed := false

	if fields.ExternalID != nil && *fields.ExternalID != "" && !equalStringPtr(account.ExternalID, fields.ExternalID) {
		account.ExternalID = logger.Ptr(*fields.ExternalID)
		changed = true
	}
	if fields.Name != nil && account.Name != *fields.Name {
		account.Name = *fields.Name
		changed = true
	}
	if fields.AvatarURL != nil && !equalStringPtr(account.AvatarURL, fields.AvatarURL) {
		account.AvatarURL = logger.Ptr(*fields.AvatarURL)
		changed = true
	}
	if fields.LastLoginAt != nil && (account.LastLoginAt == nil || !account.LastLoginAt.Equal(*fields.LastLoginAt)) {
		account.LastLoginAt = logger.Ptr(*fields.LastLoginAt)
		changed = true
	}
	if fields.IsActive != nil && account.IsActive != *fields.IsActive {
		account.IsActive = *fields.IsActive
		changed = true
	}

	return changed
}

func (g *upsertGateway) UpsertOrganization(ctx context.Context, externalID string, fields OrganizationFields) (*model.Organization, bool, error) {
	if externalID == "" {
		return nil, false, fmt.Errorf("organization external id required")
	}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := g.orgs.GetByExternalID(ctx, externalID)
		if err == nil {
			if !applyOrganizationFields(existing, fields) {
				return existing, false, nil
			}
			if err := g.orgs.Update(ctx, existing); err != nil {
				return nil, false, fmt.Errorf("updating organization %d: %w", existing.ID, err)
			}
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("looking up organization: %w", err)
		}

		org, err := g.newOrganization(ctx, externalID, fields)
		if err != nil {
			return nil, false, err
		}

		err = g.orgs.Create(ctx, org)
		if err == nil {
			slog.InfoContext(ctx, "organization created", "organization_id", org.ID, "slug", org.Slug)
			return org, true, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, false, fmt.Errorf("creating organization: %w", err)
		}

		// Either another delivery inserted the same organization or the slug was taken
		// between the availability check and the insert; both resolve on the next pass.
		slog.DebugContext(ctx, "organization insert lost race, re-reading", "attempt", attempt+1)
	}

	return nil, false, fmt.Errorf("upserting organization: %w", store.ErrConflict)
}

func (g *upsertGateway) newOrganization(ctx context.Context, externalID string, fields OrganizationFields) (*model.Organization, error) {
	name := externalID
	if fields.Name != nil && *fields.Name != "" {
		name = *fields.Name
	}

	slug, err := g.ensureSlug(ctx, name, fields.Slug)
	if err != nil {
		return nil, err
	}

	trialEnds := g.now().Add(model.TrialPeriod)
	return &model.Organization{
		ID:          id.New(),
		ExternalID:  externalID,
		Name:        name,
		Slug:        slug,
		Plan:        model.OrganizationPlanTrial,
		TrialEndsAt: &trialEnds,
		CreatedBy:   fields.CreatedBy,
		Features:    model.UnlimitedFeatures(),
	}, nil
}

func applyOrganizationFields(org *model.Organization, fields OrganizationFields) bool {
	changed := false

	if fields.Name != nil && *fields.Name != "" && org.Name != *fields.Name {
		org.Name = *fields.Name
		changed = true
	}
	if fields.CreatedBy != nil && (org.CreatedBy == nil || *org.CreatedBy != *fields.CreatedBy) {
		org.CreatedBy = logger.Ptr(*fields.CreatedBy)
		changed = true
	}

	return changed
}

func (g *upsertGateway) ensureSlug(ctx context.Context, name string, slug *string) (string, error) {
	input := name
	if slug != nil && *slug != "" {
		input = *slug
	}

	base, err := common.Slugify(input, "org")
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}

	// Fast path
	if _, err := g.orgs.GetBySlug(ctx, base); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return base, nil
		}
		return "", fmt.Errorf("checking slug availability: %w", err)
	}

	// Add numeric suffix until available
	for i := 1; i <= 20; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		_, err := g.orgs.GetBySlug(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug availability: %w", err)
		}
	}

	return "", fmt.Errorf("unable to find available slug for %q", base)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/internal/businessdata"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/store"
)

const DefaultDeletionTimeout = 30 * time.Second

// SyncService applies verified identity provider events to the system of record.
type SyncService interface {
	Handle(ctx context.Context, event *domain.IdentityEvent) error
}

type SyncDependencies struct {
	Gateway         UpsertGateway
	Accounts        store.AccountStore
	Organizations   store.OrganizationStore
	Memberships     store.MembershipStore
	Clients         store.ClientStore
	Deletion        DeletionService
	Invitations     InvitationService
	BusinessData    businessdata.Client
	Provider        identity.Provider
	Notifier        queue.Notifier
	DeletionTimeout time.Duration
}

type syncService struct {
	deps SyncDependencies
}

func NewSyncService(deps SyncDependencies) SyncService {
	if deps.DeletionTimeout <= 0 {
		deps.DeletionTimeout = DefaultDeletionTimeout
	}
	return &syncService{deps: deps}
}

func (s *syncService) Handle(ctx context.Context, event *domain.IdentityEvent) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: logger.Ptr(string(event.Type)),
		Component: "portal.service.sync",
	})

	switch event.Type {
	case domain.EventUserCreated, domain.EventUserUpdated:
		return s.handleUserUpsert(ctx, event)
	case domain.EventUserDeleted:
		return s.handleUserDeleted(ctx, event)
	case domain.EventOrganizationCreated:
		return s.handleOrganizationCreated(ctx, event)
	case domain.EventOrganizationMembershipCreated:
		return s.handleMembershipCreated(ctx, event)
	case domain.EventOrganizationInvitationCreated:
		return s.handleInvitationCreated(ctx, event)
	case domain.EventOrganizationInvitationAccepted:
		return s.handleInvitationAccepted(ctx, event)
	default:
		return Permanent(ErrUnhandledEvent)
	}
}

func decodeEvent(event *domain.IdentityEvent, v any) error {
	if err := event.Decode(v); err != nil {
		return Permanent(fmt.Errorf("%w: %v", ErrMalformedEvent, err))
	}
	return nil
}

func (s *syncService) handleUserUpsert(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.UserPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}
	if payload.ID == "" {
		return Permanent(fmt.Errorf("%w: user id missing", ErrMalformedEvent))
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ExternalID: logger.Ptr(payload.ID)})

	fields := AccountFields{
		ExternalID:  logger.Ptr(payload.ID),
		Name:        payload.FullName(),
		AvatarURL:   payload.ImageURL,
		LastLoginAt: payload.LastSignIn(),
	}

	email := payload.PrimaryEmail()
	if email == "" {
		user, err := s.deps.Provider.GetUser(ctx, payload.ID)
		if err != nil && !errors.Is(err, identity.ErrNotConfigured) && !errors.Is(err, identity.ErrUserNotFound) {
			return fmt.Errorf("fetching user from identity provider: %w", err)
		}
		if user != nil {
			email = domain.NormalizeEmail(user.Email)
			if fields.Name == nil && user.Name != "" {
				fields.Name = logger.Ptr(user.Name)
			}
			if fields.AvatarURL == nil {
				fields.AvatarURL = user.AvatarURL
			}
		}
	}
	if email == "" {
		return Permanent(ErrEmailRequired)
	}

	role, err := s.resolveRole(ctx, email)
	if err != nil {
		return err
	}
	fields.DefaultRole = role

	account, created, err := s.deps.Gateway.UpsertAccount(ctx, email, fields)
	if err != nil {
		return fmt.Errorf("upserting account: %w", err)
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{AccountID: logger.Ptr(account.ID)})

	slog.InfoContext(ctx, "account synced", "created", created, "role", account.Role)

	if err := s.syncSibling(ctx, "sync account", func(ctx context.Context) error {
		return s.deps.BusinessData.SyncAccount(ctx, businessdata.AccountPayload{
			ExternalID: account.ExternalID,
			Email:      account.Email,
			Name:       account.Name,
			AvatarURL:  account.AvatarURL,
			Role:       string(account.Role),
			IsActive:   account.IsActive,
		})
	}); err != nil {
		return err
	}

	s.publish(ctx, domain.Notification{
		Type:      domain.NotificationAccountSynced,
		AccountID: logger.Ptr(account.ID),
	})
	return nil
}

// resolveRole returns the role a new account starts with: client when a client
// record with the same email exists, admin otherwise.
func (s *syncService) resolveRole(ctx context.Context, email string) (model.AccountRole, error) {
	isClient, err := s.deps.Clients.ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("checking client records: %w", err)
	}
	if isClient {
		return model.AccountRoleClient, nil
	}
	return model.AccountRoleAdmin, nil
}

func (s *syncService) handleUserDeleted(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.UserPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ExternalID: logger.Ptr(payload.ID)})

	account, err := s.findDeletedAccount(ctx, payload)
	if err != nil {
		return err
	}
	if account == nil {
		slog.InfoContext(ctx, "deleted user has no account, nothing to do")
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{AccountID: logger.Ptr(account.ID)})

	deleteCtx, cancel := context.WithTimeout(ctx, s.deps.DeletionTimeout)
	report, err := s.deps.Deletion.HardDelete(deleteCtx, account.ID)
	cancel()
	if err == nil {
		slog.InfoContext(ctx, "account hard deleted",
			"rows", report.Total(),
			"failed_steps", report.FailedSteps)
		return nil
	}
	if errors.Is(err, ErrAccountNotFound) {
		return nil
	}

	slog.WarnContext(ctx, "hard delete failed, falling back to soft delete", "error", err)

	if softErr := s.deps.Deletion.SoftDeleteByEmail(ctx, account.Email); softErr != nil {
		if errors.Is(softErr, ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("hard delete: %w; soft delete: %v", err, softErr)
	}
	return nil
}

// findDeletedAccount returns nil without error when no account matches.
func (s *syncService) findDeletedAccount(ctx context.Context, payload domain.UserPayload) (*model.Account, error) {
	if payload.ID != "" {
		account, err := s.deps.Accounts.GetByExternalID(ctx, payload.ID)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("looking up account by external id: %w", err)
		}
	}

	email := payload.PrimaryEmail()
	if email == "" {
		return nil, nil
	}
	account, err := s.deps.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up account by email: %w", err)
	}
	return account, nil
}

func (s *syncService) handleOrganizationCreated(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.OrganizationPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}
	if payload.ID == "" {
		return Permanent(fmt.Errorf("%w: organization id missing", ErrMalformedEvent))
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ExternalID: logger.Ptr(payload.ID)})

	fields := OrganizationFields{
		Name: logger.Ptr(payload.Name),
		Slug: payload.Slug,
	}
	if payload.CreatedBy != nil && *payload.CreatedBy != "" {
		creator, err := s.deps.Accounts.GetByExternalID(ctx, *payload.CreatedBy)
		switch {
		case err == nil:
			fields.CreatedBy = logger.Ptr(creator.ID)
		case errors.Is(err, store.ErrNotFound):
			slog.InfoContext(ctx, "organization creator not synced yet", "creator", *payload.CreatedBy)
		default:
			return fmt.Errorf("looking up organization creator: %w", err)
		}
	}

	org, created, err := s.deps.Gateway.UpsertOrganization(ctx, payload.ID, fields)
	if err != nil {
		return fmt.Errorf("upserting organization: %w", err)
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{OrganizationID: logger.Ptr(org.ID)})

	slog.InfoContext(ctx, "organization synced", "created", created, "slug", org.Slug)

	if err := s.syncSibling(ctx, "create organization", func(ctx context.Context) error {
		return s.deps.BusinessData.CreateOrganization(ctx, businessdata.OrganizationPayload{
			ExternalID:  org.ExternalID,
			Name:        org.Name,
			Slug:        org.Slug,
			Plan:        org.Plan,
			TrialEndsAt: org.TrialEndsAt,
			CreatedBy:   payload.CreatedBy,
		})
	}); err != nil {
		return err
	}

	s.publish(ctx, domain.Notification{
		Type:           domain.NotificationOrganizationSynced,
		OrganizationID: logger.Ptr(org.ID),
	})
	return nil
}

func (s *syncService) handleMembershipCreated(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.MembershipPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}
	if payload.Organization.ID == "" {
		return Permanent(fmt.Errorf("%w: membership organization id missing", ErrMalformedEvent))
	}
	if payload.PublicUserData.UserID == "" && domain.NormalizeEmail(payload.PublicUserData.Identifier) == "" {
		return Permanent(fmt.Errorf("%w: membership user id and identifier missing", ErrMalformedEvent))
	}

	org, err := s.deps.Organizations.GetByExternalID(ctx, payload.Organization.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOrganizationNotFound, payload.Organization.ID)
		}
		return fmt.Errorf("looking up organization: %w", err)
	}

	account, err := s.findMember(ctx, payload.PublicUserData)
	if err != nil {
		return err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		OrganizationID: logger.Ptr(org.ID),
		AccountID:      logger.Ptr(account.ID),
	})

	membership := &model.Membership{
		ID:             id.New(),
		OrganizationID: org.ID,
		AccountID:      account.ID,
		Role:           model.MembershipRoleFromProvider(payload.Role),
	}
	if err := s.deps.Memberships.Upsert(ctx, membership); err != nil {
		return fmt.Errorf("upserting membership: %w", err)
	}

	slog.InfoContext(ctx, "membership synced", "role", membership.Role)

	s.publish(ctx, domain.Notification{
		Type:           domain.NotificationMembershipSynced,
		AccountID:      logger.Ptr(account.ID),
		OrganizationID: logger.Ptr(org.ID),
	})
	return nil
}

func (s *syncService) findMember(ctx context.Context, user domain.PublicUserData) (*model.Account, error) {
	if user.UserID != "" {
		account, err := s.deps.Accounts.GetByExternalID(ctx, user.UserID)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("looking up member by external id: %w", err)
		}
	}

	if email := domain.NormalizeEmail(user.Identifier); email != "" {
		account, err := s.deps.Accounts.GetByEmail(ctx, email)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("looking up member by email: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, user.UserID)
}

func (s *syncService) handleInvitationCreated(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.InvitationPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}

	inv, err := s.deps.Invitations.MirrorFromProvider(ctx, MirrorInvitationParams{
		ExternalID:             payload.ID,
		Email:                  payload.EmailAddress,
		OrganizationExternalID: payload.OrganizationID,
		Role:                   payload.Role,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "invitation mirrored", "invitation_id", inv.ID, "status", inv.Status)
	return nil
}

func (s *syncService) handleInvitationAccepted(ctx context.Context, event *domain.IdentityEvent) error {
	var payload domain.InvitationPayload
	if err := decodeEvent(event, &payload); err != nil {
		return err
	}

	// The created event may not have been processed yet; mirror first.
	if _, err := s.deps.Invitations.MirrorFromProvider(ctx, MirrorInvitationParams{
		ExternalID:             payload.ID,
		Email:                  payload.EmailAddress,
		OrganizationExternalID: payload.OrganizationID,
		Role:                   payload.Role,
	}); err != nil {
		return err
	}

	inv, err := s.deps.Invitations.MarkAcceptedByProvider(ctx, payload.ID, payload.EmailAddress)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "mirrored invitation accepted", "invitation_id", inv.ID, "status", inv.Status)
	return nil
}

// syncSibling calls the business-data service. Transient failures are returned
// so the delivery is retried; anything else is logged and dropped because the
// system of record has already been updated.
func (s *syncService) syncSibling(ctx context.Context, op string, call func(ctx context.Context) error) error {
	err := call(ctx)
	if err == nil {
		return nil
	}
	if businessdata.IsTransient(err) {
		return fmt.Errorf("business data %s: %w", op, err)
	}
	slog.ErrorContext(ctx, "business data call failed, not retrying",
		"operation", op,
		"error", err)
	return nil
}

func (s *syncService) publish(ctx context.Context, n domain.Notification) {
	n.OccurredAt = time.Now()
	if err := s.deps.Notifier.Publish(ctx, n); err != nil {
		slog.WarnContext(ctx, "failed to publish notification",
			"type", n.Type,
			"error", err)
	}
}

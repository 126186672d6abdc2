package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/store"
)

const (
	InviteTokenLength = 32

	DefaultInviteExpiry             = 24 * time.Hour
	DefaultOrganizationInviteExpiry = 48 * time.Hour

	roleAssignmentReasonInvitation = "invitation accepted"
)

var (
	ErrInviteNotFound             = errors.New("invitation not found")
	ErrInviteExpired              = errors.New("invitation has expired")
	ErrInviteAlreadyProcessed     = errors.New("invitation has already been processed")
	ErrDuplicateUser              = errors.New("a user with this email already exists")
	ErrDuplicatePendingInvitation = errors.New("a pending invitation already exists for this email")
	ErrInvalidEmail               = errors.New("invalid email address")
	ErrInvalidRole                = errors.New("invalid role")
)

type CreateInvitationParams struct {
	Email          string
	Role           model.AccountRole
	OrganizationID *int64
	ProjectID      *int64
	InvitedBy      *int64
}

// MirrorInvitationParams describes an invitation that was issued by the identity provider.
type MirrorInvitationParams struct {
	ExternalID             string
	Email                  string
	OrganizationExternalID string
	Role                   string
}

type InvitationService interface {
	Create(ctx context.Context, params CreateInvitationParams) (*model.Invitation, string, error)
	Validate(ctx context.Context, token string) (*model.Invitation, error)
	Accept(ctx context.Context, token string, accountID int64, metadata model.AcceptMetadata) (*model.Invitation, error)
	Revoke(ctx context.Context, id int64, revokedBy *int64, reason *string) (*model.Invitation, error)
	Cancel(ctx context.Context, id int64, actor *int64) (*model.Invitation, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]model.Invitation, error)
	ExpireStale(ctx context.Context) (int, error)
	MirrorFromProvider(ctx context.Context, params MirrorInvitationParams) (*model.Invitation, error)
	MarkAcceptedByProvider(ctx context.Context, externalID, email string) (*model.Invitation, error)
}

type InvitationOptions struct {
	DashboardURL       string
	Expiry             time.Duration
	OrganizationExpiry time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type invitationService struct {
	stores   StoreProvider
	txRunner TxRunner
	provider identity.Provider
	notifier queue.Notifier
	opts     InvitationOptions
}

func NewInvitationService(stores StoreProvider, txRunner TxRunner, provider identity.Provider, notifier queue.Notifier, opts InvitationOptions) InvitationService {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultInviteExpiry
	}
	if opts.OrganizationExpiry <= 0 {
		opts.OrganizationExpiry = DefaultOrganizationInviteExpiry
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &invitationService{
		stores:   stores,
		txRunner: txRunner,
		provider: provider,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *invitationService) Create(ctx context.Context, params CreateInvitationParams) (*model.Invitation, string, error) {
	email := domain.NormalizeEmail(params.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, "", ErrInvalidEmail
	}
	if !params.Role.Valid() {
		return nil, "", ErrInvalidRole
	}

	var org *model.Organization
	if params.OrganizationID != nil {
		var err error
		org, err = s.stores.Organizations().GetByID(ctx, *params.OrganizationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, "", ErrOrganizationNotFound
			}
			return nil, "", fmt.Errorf("getting organization: %w", err)
		}
	}

	if err := s.ensureNotMember(ctx, email, org); err != nil {
		return nil, "", err
	}

	now := s.opts.Now()
	_, err := s.stores.Invitations().FindPending(ctx, email, params.OrganizationID, now)
	if err == nil {
		return nil, "", ErrDuplicatePendingInvitation
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("checking pending invitations: %w", err)
	}

	token, err := generateSecureToken(InviteTokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	expiry := s.opts.Expiry
	if org != nil {
		expiry = s.opts.OrganizationExpiry
	}

	inv := &model.Invitation{
		ID:             id.New(),
		Token:          token,
		Email:          email,
		Role:           params.Role,
		ProjectID:      params.ProjectID,
		OrganizationID: params.OrganizationID,
		InvitedBy:      params.InvitedBy,
		Status:         model.InvitationStatusPending,
		ExpiresAt:      now.Add(expiry),
		CreatedAt:      now,
	}

	var lapsed int
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		n, err := expireLapsed(ctx, sp, email, params.OrganizationID, now)
		if err != nil {
			return err
		}
		lapsed = n
		if err := sp.Invitations().Create(ctx, inv); err != nil {
			return err
		}
		return recordAudit(ctx, sp, inv.ID, model.AuditActionSent, params.InvitedBy, map[string]any{
			"email": email,
			"role":  params.Role,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, "", ErrDuplicatePendingInvitation
		}
		return nil, "", fmt.Errorf("creating invitation: %w", err)
	}

	if lapsed > 0 {
		metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusExpired)).Add(float64(lapsed))
	}
	metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusPending)).Inc()

	if org != nil {
		s.mirrorToProvider(ctx, inv, org, expiry)
	}

	inviteURL := fmt.Sprintf("%s/invite?token=%s", s.opts.DashboardURL, token)

	slog.InfoContext(ctx, "invitation created",
		"invitation_id", inv.ID,
		"email", email,
		"role", inv.Role,
		"expires_at", inv.ExpiresAt,
	)

	return inv, inviteURL, nil
}

// ensureNotMember rejects emails that already belong to the organization, or
// to any account when the invitation has no organization.
func (s *invitationService) ensureNotMember(ctx context.Context, email string, org *model.Organization) error {
	if org != nil {
		member, err := s.stores.Memberships().IsMemberByEmail(ctx, org.ID, email)
		if err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if member {
			return ErrDuplicateUser
		}
		return nil
	}

	_, err := s.stores.Accounts().GetByEmail(ctx, email)
	if err == nil {
		return ErrDuplicateUser
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking account: %w", err)
	}
	return nil
}

// mirrorToProvider sends the invitation through the identity provider as well.
// The local row stays authoritative, so failures are only logged.
func (s *invitationService) mirrorToProvider(ctx context.Context, inv *model.Invitation, org *model.Organization, expiry time.Duration) {
	params := identity.SendInvitationParams{
		Email:                  inv.Email,
		OrganizationExternalID: org.ExternalID,
		Role:                   string(model.MembershipRoleFor(inv.Role)),
		ExpiresInDays:          max(1, int(expiry.Hours()/24)),
	}
	if inv.InvitedBy != nil {
		if inviter, err := s.stores.Accounts().GetByID(ctx, *inv.InvitedBy); err == nil {
			params.InviterExternalID = inviter.ExternalID
		}
	}

	externalID, err := s.provider.SendInvitation(ctx, params)
	if err != nil {
		if !errors.Is(err, identity.ErrNotConfigured) {
			slog.WarnContext(ctx, "failed to mirror invitation to identity provider",
				"invitation_id", inv.ID,
				"error", err)
		}
		return
	}

	if err := s.stores.Invitations().SetExternalID(ctx, inv.ID, externalID); err != nil {
		slog.WarnContext(ctx, "failed to store provider invitation id",
			"invitation_id", inv.ID,
			"external_id", externalID,
			"error", err)
		return
	}
	inv.ExternalID = &externalID
}

func (s *invitationService) Validate(ctx context.Context, token string) (*model.Invitation, error) {
	if token == "" {
		return nil, ErrInviteNotFound
	}

	inv, err := s.stores.Invitations().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}

	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInviteNotFound
	}

	if inv.IsExpired(s.opts.Now()) {
		moved, err := s.expire(ctx, inv)
		if err != nil {
			return nil, err
		}
		if !moved {
			// Another transition, usually an accept, got there first.
			return nil, ErrInviteNotFound
		}
		return nil, ErrInviteExpired
	}

	return inv, nil
}

// expire moves a pending invitation to expired and reports whether it did.
// Losing the race to another transition is not an error.
func (s *invitationService) expire(ctx context.Context, inv *model.Invitation) (bool, error) {
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Invitations().Expire(ctx, inv.ID); err != nil {
			return err
		}
		return recordAudit(ctx, sp, inv.ID, model.AuditActionExpired, nil, map[string]any{
			"expires_at": inv.ExpiresAt,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("expiring invitation: %w", err)
	}

	inv.Status = model.InvitationStatusExpired
	metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusExpired)).Inc()
	slog.InfoContext(ctx, "invitation expired", "invitation_id", inv.ID)
	return true, nil
}

// expireLapsed clears pending invitations for email and scope whose deadline
// has passed so they no longer hold the pending slot.
func expireLapsed(ctx context.Context, sp StoreProvider, email string, orgID *int64, now time.Time) (int, error) {
	lapsed, err := sp.Invitations().ExpireLapsedPending(ctx, email, orgID, now)
	if err != nil {
		return 0, fmt.Errorf("expiring lapsed invitations: %w", err)
	}
	for _, inv := range lapsed {
		if err := recordAudit(ctx, sp, inv.ID, model.AuditActionExpired, nil, map[string]any{
			"expires_at": inv.ExpiresAt,
		}); err != nil {
			return 0, err
		}
	}
	return len(lapsed), nil
}

func (s *invitationService) Accept(ctx context.Context, token string, accountID int64, metadata model.AcceptMetadata) (*model.Invitation, error) {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if _, err := s.stores.Accounts().GetByID(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}

	return s.completeAcceptance(ctx, inv, accountID, &metadata)
}

// completeAcceptance performs the guarded transition together with the membership,
// role assignment and audit writes. The guard makes a second acceptance fail.
func (s *invitationService) completeAcceptance(ctx context.Context, inv *model.Invitation, accountID int64, metadata *model.AcceptMetadata) (*model.Invitation, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InvitationID: logger.Ptr(inv.ID),
		AccountID:    logger.Ptr(accountID),
	})
	now := s.opts.Now()

	var accepted *model.Invitation
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		accepted, err = sp.Invitations().Accept(ctx, inv.ID, &accountID, now, metadata)
		if err != nil {
			return err
		}

		if accepted.OrganizationID != nil {
			if err := sp.Memberships().Upsert(ctx, &model.Membership{
				ID:             id.New(),
				OrganizationID: *accepted.OrganizationID,
				AccountID:      accountID,
				Role:           model.MembershipRoleFor(accepted.Role),
			}); err != nil {
				return fmt.Errorf("upserting membership: %w", err)
			}
		}

		if err := sp.RoleAssignments().Create(ctx, &model.RoleAssignment{
			ID:            id.New(),
			AccountID:     accountID,
			Role:          accepted.Role,
			AssignedBy:    accepted.InvitedBy,
			ProjectID:     accepted.ProjectID,
			Reason:        roleAssignmentReasonInvitation,
			EffectiveFrom: now,
		}); err != nil {
			return fmt.Errorf("recording role assignment: %w", err)
		}

		auditMeta := map[string]any{}
		if metadata != nil {
			auditMeta["ip"] = metadata.IP
			auditMeta["user_agent"] = metadata.UserAgent
		}
		return recordAudit(ctx, sp, inv.ID, model.AuditActionAccepted, &accountID, auditMeta)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteAlreadyProcessed
		}
		return nil, fmt.Errorf("accepting invitation: %w", err)
	}

	metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusAccepted)).Inc()
	slog.InfoContext(ctx, "invitation accepted", "role", accepted.Role)

	s.publish(ctx, domain.Notification{
		Type:           domain.NotificationInvitationAccepted,
		AccountID:      logger.Ptr(accountID),
		OrganizationID: accepted.OrganizationID,
		InvitationID:   logger.Ptr(accepted.ID),
		OccurredAt:     now,
	})

	return accepted, nil
}

func (s *invitationService) Revoke(ctx context.Context, id int64, revokedBy *int64, reason *string) (*model.Invitation, error) {
	now := s.opts.Now()

	var revoked *model.Invitation
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Invitations().GetByID(ctx, id); err != nil {
			return err
		}

		var err error
		revoked, err = sp.Invitations().Revoke(ctx, id, revokedBy, reason, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteAlreadyProcessed
			}
			return err
		}

		meta := map[string]any{}
		if reason != nil {
			meta["reason"] = *reason
		}
		return recordAudit(ctx, sp, id, model.AuditActionRevoked, revokedBy, meta)
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyProcessed) {
			return nil, err
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("revoking invitation: %w", err)
	}

	metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusRevoked)).Inc()

	if revoked.ExternalID != nil {
		if err := s.provider.RevokeInvitation(ctx, *revoked.ExternalID); err != nil && !errors.Is(err, identity.ErrNotConfigured) {
			slog.WarnContext(ctx, "failed to revoke provider invitation",
				"invitation_id", id,
				"external_id", *revoked.ExternalID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "invitation revoked",
		"invitation_id", id,
		"email", revoked.Email,
	)

	s.publish(ctx, domain.Notification{
		Type:           domain.NotificationInvitationRevoked,
		OrganizationID: revoked.OrganizationID,
		InvitationID:   logger.Ptr(revoked.ID),
		OccurredAt:     now,
	})

	return revoked, nil
}

func (s *invitationService) Cancel(ctx context.Context, id int64, actor *int64) (*model.Invitation, error) {
	var cancelled *model.Invitation
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Invitations().GetByID(ctx, id); err != nil {
			return err
		}

		var err error
		cancelled, err = sp.Invitations().Cancel(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteAlreadyProcessed
			}
			return err
		}
		return recordAudit(ctx, sp, id, model.AuditActionCancelled, actor, nil)
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyProcessed) {
			return nil, err
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("cancelling invitation: %w", err)
	}

	metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusCancelled)).Inc()
	slog.InfoContext(ctx, "invitation cancelled", "invitation_id", id)
	return cancelled, nil
}

func (s *invitationService) ListByOrganization(ctx context.Context, orgID int64) ([]model.Invitation, error) {
	invitations, err := s.stores.Invitations().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, nil
}

// ExpireStale expires every pending invitation past its deadline and returns how many moved.
func (s *invitationService) ExpireStale(ctx context.Context) (int, error) {
	var expired []model.Invitation
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		expired, err = sp.Invitations().ExpireStale(ctx, s.opts.Now())
		if err != nil {
			return err
		}
		for _, inv := range expired {
			if err := recordAudit(ctx, sp, inv.ID, model.AuditActionExpired, nil, map[string]any{
				"expires_at": inv.ExpiresAt,
				"sweep":      true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("expiring stale invitations: %w", err)
	}

	if len(expired) > 0 {
		metrics.InvitationTransitions.WithLabelValues(string(model.InvitationStatusExpired)).Add(float64(len(expired)))
		slog.InfoContext(ctx, "stale invitations expired", "count", len(expired))
	}
	return len(expired), nil
}

func (s *invitationService) MirrorFromProvider(ctx context.Context, params MirrorInvitationParams) (*model.Invitation, error) {
	if params.ExternalID == "" {
		return nil, Permanent(fmt.Errorf("%w: invitation id missing", ErrMalformedEvent))
	}

	existing, err := s.stores.Invitations().GetByExternalID(ctx, params.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up mirrored invitation: %w", err)
	}

	email := domain.NormalizeEmail(params.Email)
	if email == "" {
		return nil, Permanent(ErrEmailRequired)
	}

	org, err := s.stores.Organizations().GetByExternalID(ctx, params.OrganizationExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("getting organization: %w", err)
	}

	token, err := generateSecureToken(InviteTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	role := model.AccountRoleTeamMember
	if model.MembershipRoleFromProvider(params.Role) == model.MembershipRoleAdmin {
		role = model.AccountRoleAdmin
	}

	now := s.opts.Now()
	inv := &model.Invitation{
		ID:             id.New(),
		Token:          token,
		Email:          email,
		Role:           role,
		OrganizationID: &org.ID,
		Status:         model.InvitationStatusPending,
		ExpiresAt:      now.Add(s.opts.OrganizationExpiry),
		ExternalID:     &params.ExternalID,
		CreatedAt:      now,
	}

	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := expireLapsed(ctx, sp, email, &org.ID, now); err != nil {
			return err
		}
		if err := sp.Invitations().Create(ctx, inv); err != nil {
			return err
		}
		return recordAudit(ctx, sp, inv.ID, model.AuditActionSent, nil, map[string]any{
			"source":      "identity_provider",
			"external_id": params.ExternalID,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return s.adoptPending(ctx, email, org.ID, params.ExternalID, now)
		}
		return nil, fmt.Errorf("mirroring invitation: %w", err)
	}

	slog.InfoContext(ctx, "provider invitation mirrored",
		"invitation_id", inv.ID,
		"external_id", params.ExternalID,
		"organization_id", org.ID)

	return inv, nil
}

// adoptPending resolves a conflicting mirror insert. Either a concurrent
// delivery of the same event won, or a locally created invitation already holds
// the pending slot and is linked to the provider invitation instead.
func (s *invitationService) adoptPending(ctx context.Context, email string, orgID int64, externalID string, now time.Time) (*model.Invitation, error) {
	existing, err := s.stores.Invitations().GetByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up mirrored invitation: %w", err)
	}

	pending, err := s.stores.Invitations().FindPending(ctx, email, &orgID, now)
	if err != nil {
		return nil, fmt.Errorf("finding conflicting invitation: %w", err)
	}
	if pending.ExternalID != nil && *pending.ExternalID != externalID {
		return nil, Permanent(ErrDuplicatePendingInvitation)
	}
	if err := s.stores.Invitations().SetExternalID(ctx, pending.ID, externalID); err != nil {
		return nil, fmt.Errorf("linking mirrored invitation: %w", err)
	}
	pending.ExternalID = &externalID

	slog.InfoContext(ctx, "provider invitation linked to pending invitation",
		"invitation_id", pending.ID,
		"external_id", externalID)
	return pending, nil
}

// MarkAcceptedByProvider accepts the mirror of a provider invitation. A mirror that
// is already terminal is returned unchanged so redelivery is harmless.
func (s *invitationService) MarkAcceptedByProvider(ctx context.Context, externalID, email string) (*model.Invitation, error) {
	inv, err := s.stores.Invitations().GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("looking up mirrored invitation: %w", err)
	}

	if inv.Status.Terminal() {
		return inv, nil
	}

	if email == "" {
		email = inv.Email
	}
	account, err := s.stores.Accounts().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}

	accepted, err := s.completeAcceptance(ctx, inv, account.ID, nil)
	if errors.Is(err, ErrInviteAlreadyProcessed) {
		return s.stores.Invitations().GetByExternalID(ctx, externalID)
	}
	return accepted, err
}

func (s *invitationService) publish(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Publish(ctx, n); err != nil {
		slog.WarnContext(ctx, "failed to publish notification",
			"type", n.Type,
			"error", err)
	}
}

func recordAudit(ctx context.Context, sp StoreProvider, invitationID int64, action model.AuditAction, actor *int64, metadata map[string]any) error {
	var raw json.RawMessage
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encoding audit metadata: %w", err)
		}
		raw = b
	}

	if err := sp.InvitationAudit().Record(ctx, &model.InvitationAuditEntry{
		ID:           id.New(),
		InvitationID: invitationID,
		Action:       action,
		ActorID:      actor,
		Metadata:     raw,
	}); err != nil {
		return fmt.Errorf("recording %s audit entry: %w", action, err)
	}
	return nil
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

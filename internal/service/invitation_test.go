package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/service"
)

var _ = Describe("InvitationService", func() {
	const dashboardURL = "https://portal.test"

	var (
		ctx      context.Context
		stores   *memStores
		tx       *memTxRunner
		provider *mockProvider
		notifier *recordingNotifier
		now      time.Time
		svc      service.InvitationService
		org      model.Organization
		inviter  model.Account
		invitee  model.Account
	)

	auditActions := func(invitationID int64) []model.AuditAction {
		entries, err := stores.InvitationAudit().ListByInvitation(ctx, invitationID)
		Expect(err).NotTo(HaveOccurred())
		actions := make([]model.AuditAction, len(entries))
		for i, e := range entries {
			actions[i] = e.Action
		}
		return actions
	}

	create := func(email string, orgID *int64) (*model.Invitation, string) {
		inv, url, err := svc.Create(ctx, service.CreateInvitationParams{
			Email:          email,
			Role:           model.AccountRoleTeamMember,
			OrganizationID: orgID,
			InvitedBy:      &inviter.ID,
		})
		Expect(err).NotTo(HaveOccurred())
		return inv, url
	}

	BeforeEach(func() {
		ctx = context.Background()
		stores = newMemStores()
		tx = &memTxRunner{stores: stores}
		provider = &mockProvider{}
		notifier = &recordingNotifier{}
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		org = model.Organization{ID: 1, ExternalID: "org_ext", Name: "Acme", Slug: "acme"}
		stores.db.orgs[org.ID] = org
		inviter = model.Account{ID: 10, Email: "owner@acme.com", ExternalID: logger.Ptr("user_owner"), Role: model.AccountRoleAdmin, IsActive: true}
		invitee = model.Account{ID: 20, Email: "new@acme.com", Role: model.AccountRoleAdmin, IsActive: true}
		stores.db.accounts[inviter.ID] = inviter
		stores.db.memberships[[2]int64{org.ID, inviter.ID}] = model.Membership{OrganizationID: org.ID, AccountID: inviter.ID, Role: model.MembershipRoleAdmin}

		svc = service.NewInvitationService(stores, tx, provider, notifier, service.InvitationOptions{
			DashboardURL: dashboardURL,
			Now:          func() time.Time { return now },
		})
	})

	Describe("Create", func() {
		It("should issue a 256-bit token, a 48h expiry and a sent audit entry for organization invitations", func() {
			inv, url := create("New@Acme.com", &org.ID)

			Expect(inv.Email).To(Equal("new@acme.com"))
			Expect(inv.Status).To(Equal(model.InvitationStatusPending))
			Expect(inv.ExpiresAt).To(Equal(now.Add(48 * time.Hour)))
			raw, err := base64.RawURLEncoding.DecodeString(inv.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(HaveLen(32))
			Expect(url).To(Equal(dashboardURL + "/invite?token=" + inv.Token))
			Expect(auditActions(inv.ID)).To(Equal([]model.AuditAction{model.AuditActionSent}))
		})

		It("should use a 24h expiry for invitations without an organization", func() {
			inv, _ := create("solo@x.com", nil)
			Expect(inv.ExpiresAt).To(Equal(now.Add(24 * time.Hour)))
		})

		It("should reject emails that already belong to the organization", func() {
			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email:          "owner@acme.com",
				Role:           model.AccountRoleTeamMember,
				OrganizationID: &org.ID,
			})
			Expect(err).To(MatchError(service.ErrDuplicateUser))
		})

		It("should reject emails of existing accounts when unscoped", func() {
			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email: "owner@acme.com",
				Role:  model.AccountRoleClient,
			})
			Expect(err).To(MatchError(service.ErrDuplicateUser))
		})

		It("should reject a second pending invitation in the same scope", func() {
			create("new@acme.com", &org.ID)

			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email:          "new@acme.com",
				Role:           model.AccountRoleTeamMember,
				OrganizationID: &org.ID,
			})
			Expect(err).To(MatchError(service.ErrDuplicatePendingInvitation))
		})

		It("should allow a new invitation once the previous one expired", func() {
			old, _ := create("new@acme.com", &org.ID)
			now = now.Add(49 * time.Hour)

			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email:          "New@Acme.com",
				Role:           model.AccountRoleTeamMember,
				OrganizationID: &org.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			stored, err := stores.Invitations().GetByID(ctx, old.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.InvitationStatusExpired))
			Expect(auditActions(old.ID)).To(Equal([]model.AuditAction{model.AuditActionSent, model.AuditActionExpired}))
		})

		It("should report a concurrent pending insert as a duplicate", func() {
			// Another request inserts between the pending check and the transaction.
			racing := &racingTxRunner{inner: tx, before: func() {
				err := stores.Invitations().Create(ctx, &model.Invitation{
					ID:             999,
					Token:          "racing-token",
					Email:          "new@acme.com",
					Role:           model.AccountRoleTeamMember,
					OrganizationID: &org.ID,
					Status:         model.InvitationStatusPending,
					ExpiresAt:      now.Add(48 * time.Hour),
				})
				Expect(err).NotTo(HaveOccurred())
			}}
			svc = service.NewInvitationService(stores, racing, provider, notifier, service.InvitationOptions{
				DashboardURL: dashboardURL,
				Now:          func() time.Time { return now },
			})

			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email:          "new@acme.com",
				Role:           model.AccountRoleTeamMember,
				OrganizationID: &org.ID,
			})
			Expect(err).To(MatchError(service.ErrDuplicatePendingInvitation))
			Expect(stores.db.invitations).To(HaveLen(1))
		})

		It("should validate email and role", func() {
			_, _, err := svc.Create(ctx, service.CreateInvitationParams{Email: "not-an-email", Role: model.AccountRoleClient})
			Expect(err).To(MatchError(service.ErrInvalidEmail))

			_, _, err = svc.Create(ctx, service.CreateInvitationParams{Email: "a@x.com", Role: "owner"})
			Expect(err).To(MatchError(service.ErrInvalidRole))
		})

		It("should reject unknown organizations", func() {
			missing := int64(999)
			_, _, err := svc.Create(ctx, service.CreateInvitationParams{
				Email:          "a@x.com",
				Role:           model.AccountRoleClient,
				OrganizationID: &missing,
			})
			Expect(err).To(MatchError(service.ErrOrganizationNotFound))
		})

		It("should mirror organization invitations to the identity provider", func() {
			var sent identity.SendInvitationParams
			provider.sendInvitationFn = func(_ context.Context, params identity.SendInvitationParams) (string, error) {
				sent = params
				return "inv_ext_1", nil
			}

			inv, _ := create("new@acme.com", &org.ID)

			Expect(sent.OrganizationExternalID).To(Equal("org_ext"))
			Expect(*sent.InviterExternalID).To(Equal("user_owner"))
			Expect(sent.ExpiresInDays).To(Equal(2))
			Expect(*inv.ExternalID).To(Equal("inv_ext_1"))
		})

		It("should keep the invitation when mirroring fails", func() {
			provider.sendInvitationFn = func(context.Context, identity.SendInvitationParams) (string, error) {
				return "", errors.New("provider unavailable")
			}

			inv, _ := create("new@acme.com", &org.ID)
			stored, err := stores.Invitations().GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ExternalID).To(BeNil())
		})
	})

	Describe("Validate", func() {
		It("should succeed one second before expiry", func() {
			inv, _ := create("new@acme.com", &org.ID)
			now = inv.ExpiresAt.Add(-time.Second)

			got, err := svc.Validate(ctx, inv.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(inv.ID))
		})

		It("should expire the invitation one second after expiry", func() {
			inv, _ := create("new@acme.com", &org.ID)
			now = inv.ExpiresAt.Add(time.Second)

			_, err := svc.Validate(ctx, inv.Token)
			Expect(err).To(MatchError(service.ErrInviteExpired))

			stored, err := stores.Invitations().GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.InvitationStatusExpired))
			Expect(auditActions(inv.ID)).To(Equal([]model.AuditAction{model.AuditActionSent, model.AuditActionExpired}))

			_, err = svc.Validate(ctx, inv.Token)
			Expect(err).To(MatchError(service.ErrInviteNotFound))
		})

		It("should return ErrInviteNotFound when an accept wins the lazy expiry", func() {
			inv, _ := create("new@acme.com", &org.ID)
			now = inv.ExpiresAt.Add(time.Second)
			racing := &racingTxRunner{inner: tx, before: func() {
				_, err := stores.Invitations().Accept(ctx, inv.ID, &invitee.ID, now, nil)
				Expect(err).NotTo(HaveOccurred())
			}}
			svc = service.NewInvitationService(stores, racing, provider, notifier, service.InvitationOptions{
				DashboardURL: dashboardURL,
				Now:          func() time.Time { return now },
			})

			_, err := svc.Validate(ctx, inv.Token)
			Expect(err).To(MatchError(service.ErrInviteNotFound))

			stored, err := stores.Invitations().GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.InvitationStatusAccepted))
			Expect(auditActions(inv.ID)).To(Equal([]model.AuditAction{model.AuditActionSent}))
		})

		It("should return ErrInviteNotFound for unknown tokens", func() {
			_, err := svc.Validate(ctx, "nope")
			Expect(err).To(MatchError(service.ErrInviteNotFound))

			_, err = svc.Validate(ctx, "")
			Expect(err).To(MatchError(service.ErrInviteNotFound))
		})
	})

	Describe("Accept", func() {
		var inv *model.Invitation

		BeforeEach(func() {
			inv, _ = create("new@acme.com", &org.ID)
			stores.db.accounts[invitee.ID] = invitee
		})

		It("should accept once, upsert the membership and record the role assignment", func() {
			meta := model.AcceptMetadata{IP: "203.0.113.7", UserAgent: "test"}
			accepted, err := svc.Accept(ctx, inv.Token, invitee.ID, meta)
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted.Status).To(Equal(model.InvitationStatusAccepted))
			Expect(*accepted.AcceptedBy).To(Equal(invitee.ID))
			Expect(*accepted.AcceptMetadata).To(Equal(meta))

			membership, err := stores.Memberships().Get(ctx, org.ID, invitee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(membership.Role).To(Equal(model.MembershipRoleMember))

			roles, err := stores.RoleAssignments().ListByAccount(ctx, invitee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
			Expect(roles[0].Role).To(Equal(model.AccountRoleTeamMember))
			Expect(roles[0].Reason).To(Equal("invitation accepted"))
			Expect(*roles[0].AssignedBy).To(Equal(inviter.ID))

			Expect(auditActions(inv.ID)).To(Equal([]model.AuditAction{model.AuditActionSent, model.AuditActionAccepted}))
			Expect(notifier.types()).To(ContainElement(domain.NotificationInvitationAccepted))
		})

		It("should reject a second acceptance without a second role assignment", func() {
			_, err := svc.Accept(ctx, inv.Token, invitee.ID, model.AcceptMetadata{})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Accept(ctx, inv.Token, invitee.ID, model.AcceptMetadata{})
			Expect(err).To(Or(MatchError(service.ErrInviteNotFound), MatchError(service.ErrInviteAlreadyProcessed)))

			roles, err := stores.RoleAssignments().ListByAccount(ctx, invitee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
		})

		It("should report a lost double-submit race as already processed", func() {
			// Another request accepts between validation and the guarded update.
			racing := &racingTxRunner{inner: tx, before: func() {
				_, err := stores.Invitations().Accept(ctx, inv.ID, &invitee.ID, now, nil)
				Expect(err).NotTo(HaveOccurred())
			}}
			svc = service.NewInvitationService(stores, racing, provider, notifier, service.InvitationOptions{
				DashboardURL: dashboardURL,
				Now:          func() time.Time { return now },
			})

			_, err := svc.Accept(ctx, inv.Token, invitee.ID, model.AcceptMetadata{})
			Expect(err).To(MatchError(service.ErrInviteAlreadyProcessed))

			roles, err := stores.RoleAssignments().ListByAccount(ctx, invitee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
		})

		It("should reject expired invitations", func() {
			now = inv.ExpiresAt.Add(time.Second)
			_, err := svc.Accept(ctx, inv.Token, invitee.ID, model.AcceptMetadata{})
			Expect(err).To(MatchError(service.ErrInviteExpired))
		})

		It("should reject unknown accounts", func() {
			_, err := svc.Accept(ctx, inv.Token, 9999, model.AcceptMetadata{})
			Expect(err).To(MatchError(service.ErrAccountNotFound))
		})
	})

	Describe("Revoke", func() {
		It("should revoke a pending invitation with a reason", func() {
			inv, _ := create("new@acme.com", &org.ID)

			revoked, err := svc.Revoke(ctx, inv.ID, &inviter.ID, logger.Ptr("sent by mistake"))
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked.Status).To(Equal(model.InvitationStatusRevoked))
			Expect(*revoked.RevokeReason).To(Equal("sent by mistake"))
			Expect(auditActions(inv.ID)).To(Equal([]model.AuditAction{model.AuditActionSent, model.AuditActionRevoked}))
			Expect(notifier.types()).To(ContainElement(domain.NotificationInvitationRevoked))
		})

		It("should reject revoking an accepted invitation and keep it accepted", func() {
			inv, _ := create("new@acme.com", &org.ID)
			stores.db.accounts[invitee.ID] = invitee
			_, err := svc.Accept(ctx, inv.Token, invitee.ID, model.AcceptMetadata{})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Revoke(ctx, inv.ID, &inviter.ID, nil)
			Expect(err).To(MatchError(service.ErrInviteAlreadyProcessed))

			stored, err := stores.Invitations().GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.InvitationStatusAccepted))
			Expect(auditActions(inv.ID)).NotTo(ContainElement(model.AuditActionRevoked))
		})

		It("should return ErrInviteNotFound for unknown ids", func() {
			_, err := svc.Revoke(ctx, 424242, nil, nil)
			Expect(err).To(MatchError(service.ErrInviteNotFound))
		})

		It("should revoke the provider mirror", func() {
			provider.sendInvitationFn = func(context.Context, identity.SendInvitationParams) (string, error) {
				return "inv_ext_1", nil
			}
			inv, _ := create("new@acme.com", &org.ID)

			_, err := svc.Revoke(ctx, inv.ID, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.revoked).To(Equal([]string{"inv_ext_1"}))
		})
	})

	Describe("Cancel", func() {
		It("should cancel once", func() {
			inv, _ := create("new@acme.com", &org.ID)

			cancelled, err := svc.Cancel(ctx, inv.ID, &inviter.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(model.InvitationStatusCancelled))

			_, err = svc.Cancel(ctx, inv.ID, &inviter.ID)
			Expect(err).To(MatchError(service.ErrInviteAlreadyProcessed))
		})
	})

	Describe("ExpireStale", func() {
		It("should expire only invitations past their deadline", func() {
			old, _ := create("old@acme.com", &org.ID)
			now = now.Add(47 * time.Hour)
			fresh, _ := create("fresh@acme.com", &org.ID)
			now = now.Add(2 * time.Hour)

			n, err := svc.ExpireStale(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			stored, _ := stores.Invitations().GetByID(ctx, old.ID)
			Expect(stored.Status).To(Equal(model.InvitationStatusExpired))
			stored, _ = stores.Invitations().GetByID(ctx, fresh.ID)
			Expect(stored.Status).To(Equal(model.InvitationStatusPending))
			Expect(auditActions(old.ID)).To(ContainElement(model.AuditActionExpired))
		})
	})

	Describe("ListByOrganization", func() {
		It("should list the organization's invitations", func() {
			create("a@acme.com", &org.ID)
			create("b@acme.com", &org.ID)
			create("solo@x.com", nil)

			invitations, err := svc.ListByOrganization(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(invitations).To(HaveLen(2))
		})
	})

	Describe("provider mirrors", func() {
		params := service.MirrorInvitationParams{
			ExternalID:             "orginv_1",
			Email:                  "New@Acme.com",
			OrganizationExternalID: "org_ext",
			Role:                   "org:member",
		}

		It("should mirror once per provider invitation", func() {
			first, err := svc.MirrorFromProvider(ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(*first.OrganizationID).To(Equal(org.ID))
			Expect(first.Email).To(Equal("new@acme.com"))

			second, err := svc.MirrorFromProvider(ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(stores.db.invitations).To(HaveLen(1))
		})

		It("should link a provider invitation to the pending local one", func() {
			local, _ := create("new@acme.com", &org.ID)

			mirrored, err := svc.MirrorFromProvider(ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(mirrored.ID).To(Equal(local.ID))
			Expect(*mirrored.ExternalID).To(Equal("orginv_1"))
			Expect(stores.db.invitations).To(HaveLen(1))
		})

		It("should ask for a retry when the organization is not synced yet", func() {
			p := params
			p.OrganizationExternalID = "org_unknown"
			_, err := svc.MirrorFromProvider(ctx, p)
			Expect(err).To(MatchError(service.ErrOrganizationNotFound))
			Expect(service.IsPermanent(err)).To(BeFalse())
		})

		It("should mark the mirror accepted and tolerate redelivery", func() {
			stores.db.accounts[invitee.ID] = invitee
			_, err := svc.MirrorFromProvider(ctx, params)
			Expect(err).NotTo(HaveOccurred())

			accepted, err := svc.MarkAcceptedByProvider(ctx, "orginv_1", "new@acme.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted.Status).To(Equal(model.InvitationStatusAccepted))

			again, err := svc.MarkAcceptedByProvider(ctx, "orginv_1", "new@acme.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(model.InvitationStatusAccepted))

			roles, _ := stores.RoleAssignments().ListByAccount(ctx, invitee.ID)
			Expect(roles).To(HaveLen(1))
		})
	})
})

// racingTxRunner runs before ahead of every transaction.
type racingTxRunner struct {
	inner  service.TxRunner
	before func()
}

func (r *racingTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	r.before()
	return r.inner.WithTx(ctx, fn)
}

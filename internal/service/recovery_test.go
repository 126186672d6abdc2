package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/service"
)

const validBundle = `{
	"version": 1,
	"organization": {"external_id": "org_1", "name": "Acme", "slug": "acme"},
	"accounts": [
		{"email": "Owner@Acme.com", "external_id": "user_1", "name": "Owner", "role": "admin"},
		{"email": "dev@acme.com", "role": "team_member"}
	],
	"memberships": [
		{"email": "owner@acme.com", "role": "admin"},
		{"email": "dev@acme.com", "role": "member"}
	]
}`

var _ = Describe("RecoveryService", func() {
	var (
		ctx      context.Context
		stores   *memStores
		producer *mockProducer
		svc      service.RecoveryService
	)

	problemsOf := func(err error) []string {
		var bundleErr *service.BundleError
		Expect(errors.As(err, &bundleErr)).To(BeTrue())
		return bundleErr.Problems
	}

	BeforeEach(func() {
		ctx = context.Background()
		stores = newMemStores()
		producer = &mockProducer{}
		gateway := service.NewUpsertGateway(stores.Accounts(), stores.Organizations())
		svc = service.NewRecoveryService(stores.RecoveryJobs(), gateway, stores.Memberships(), producer)
	})

	Describe("Validate", func() {
		It("should accept a well-formed bundle", func() {
			bundle, err := svc.Validate(ctx, []byte(validBundle))
			Expect(err).NotTo(HaveOccurred())
			Expect(bundle.Organization.ExternalID).To(Equal("org_1"))
			Expect(bundle.Accounts).To(HaveLen(2))
		})

		It("should reject input that is not JSON", func() {
			_, err := svc.Validate(ctx, []byte(`{"version":`))
			Expect(err).To(MatchError(service.ErrInvalidBundle))
		})

		It("should reject bundles that break the schema", func() {
			_, err := svc.Validate(ctx, []byte(`{
				"version": 1,
				"organization": {"external_id": "org_1", "name": "Acme"},
				"accounts": [{"email": "not-an-email", "role": "admin"}],
				"memberships": []
			}`))
			Expect(err).To(MatchError(service.ErrInvalidBundle))
			Expect(problemsOf(err)).To(ContainElement(ContainSubstring("email")))
		})

		It("should reject unknown versions, roles and fields", func() {
			for _, raw := range []string{
				`{"version": 2, "organization": {"external_id": "o", "name": "A"}, "accounts": [{"email": "a@x.com", "role": "admin"}], "memberships": []}`,
				`{"version": 1, "organization": {"external_id": "o", "name": "A"}, "accounts": [{"email": "a@x.com", "role": "owner"}], "memberships": []}`,
				`{"version": 1, "organization": {"external_id": "o", "name": "A"}, "accounts": [{"email": "a@x.com", "role": "admin"}], "memberships": [], "extra": true}`,
				`{"version": 1, "organization": {"external_id": "o", "name": "A"}, "accounts": [], "memberships": []}`,
			} {
				_, err := svc.Validate(ctx, []byte(raw))
				Expect(err).To(MatchError(service.ErrInvalidBundle), raw)
			}
		})

		It("should report every cross-reference problem", func() {
			_, err := svc.Validate(ctx, []byte(`{
				"version": 1,
				"organization": {"external_id": "org_1", "name": "Acme"},
				"accounts": [
					{"email": "a@x.com", "role": "admin"},
					{"email": "A@x.com", "role": "client"}
				],
				"memberships": [
					{"email": "a@x.com", "role": "admin"},
					{"email": "a@x.com", "role": "member"},
					{"email": "ghost@x.com", "role": "member"}
				]
			}`))
			Expect(err).To(MatchError(service.ErrInvalidBundle))
			Expect(problemsOf(err)).To(ConsistOf(
				ContainSubstring("accounts[1]: duplicate email"),
				ContainSubstring("memberships[1]: duplicate membership"),
				ContainSubstring("memberships[2]: ghost@x.com is not in accounts"),
			))
		})
	})

	Describe("Stage", func() {
		It("should persist the job and enqueue it", func() {
			job, err := svc.Stage(ctx, []byte(validBundle))
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(model.RecoveryJobStatusStaged))
			Expect(job.OrganizationExternalID).To(Equal("org_1"))

			Expect(producer.enqueued).To(HaveLen(1))
			Expect(producer.enqueued[0].JobID).To(Equal(job.ID))
			Expect(producer.enqueued[0].Attempt).To(Equal(1))
		})

		It("should not stage invalid bundles", func() {
			_, err := svc.Stage(ctx, []byte(`{}`))
			Expect(err).To(MatchError(service.ErrInvalidBundle))
			Expect(stores.db.jobs).To(BeEmpty())
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("should surface enqueue failures", func() {
			producer.enqueueFn = func(context.Context, queue.JobMessage) error {
				return errors.New("redis down")
			}

			_, err := svc.Stage(ctx, []byte(validBundle))
			Expect(err).To(MatchError(ContainSubstring("redis down")))
		})
	})

	Describe("Process", func() {
		It("should replay the bundle through the upsert gateway", func() {
			job, err := svc.Stage(ctx, []byte(validBundle))
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Process(ctx, job.ID)).To(Succeed())

			org, err := stores.Organizations().GetByExternalID(ctx, "org_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(org.Slug).To(Equal("acme"))

			owner, err := stores.Accounts().GetByEmail(ctx, "owner@acme.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(*owner.ExternalID).To(Equal("user_1"))

			dev, err := stores.Accounts().GetByEmail(ctx, "dev@acme.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(dev.Role).To(Equal(model.AccountRoleTeamMember))

			membership, err := stores.Memberships().Get(ctx, org.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(membership.Role).To(Equal(model.MembershipRoleAdmin))

			stored, _ := stores.RecoveryJobs().GetByID(ctx, job.ID)
			Expect(stored.Status).To(Equal(model.RecoveryJobStatusCompleted))
			Expect(stored.Attempts).To(Equal(int32(1)))
		})

		It("should skip completed jobs", func() {
			job, _ := svc.Stage(ctx, []byte(validBundle))
			Expect(svc.Process(ctx, job.ID)).To(Succeed())
			Expect(svc.Process(ctx, job.ID)).To(Succeed())

			stored, _ := stores.RecoveryJobs().GetByID(ctx, job.ID)
			Expect(stored.Attempts).To(Equal(int32(1)))
		})

		It("should converge when the same bundle is replayed twice", func() {
			first, _ := svc.Stage(ctx, []byte(validBundle))
			second, _ := svc.Stage(ctx, []byte(validBundle))

			Expect(svc.Process(ctx, first.ID)).To(Succeed())
			Expect(svc.Process(ctx, second.ID)).To(Succeed())

			Expect(stores.db.orgs).To(HaveLen(1))
			Expect(stores.db.accounts).To(HaveLen(2))
			Expect(stores.db.memberships).To(HaveLen(2))
		})

		It("should fail corrupted jobs permanently", func() {
			stores.db.jobs[77] = model.RecoveryJob{ID: 77, Status: model.RecoveryJobStatusStaged, Bundle: []byte(`not json`)}

			err := svc.Process(ctx, 77)
			Expect(err).To(MatchError(service.ErrInvalidBundle))
			Expect(service.IsPermanent(err)).To(BeTrue())

			stored, _ := stores.RecoveryJobs().GetByID(ctx, 77)
			Expect(stored.Status).To(Equal(model.RecoveryJobStatusFailed))
			Expect(stored.LastError).NotTo(BeNil())
		})

		It("should fail jobs whose memberships reference unknown accounts", func() {
			stores.db.jobs[78] = model.RecoveryJob{ID: 78, Status: model.RecoveryJobStatusStaged, Bundle: []byte(`{
				"version": 1,
				"organization": {"external_id": "org_1", "name": "Acme"},
				"accounts": [{"email": "a@x.com", "role": "admin"}],
				"memberships": [{"email": "ghost@x.com", "role": "member"}]
			}`)}

			err := svc.Process(ctx, 78)
			Expect(err).To(MatchError(service.ErrInvalidBundle))
			Expect(service.IsPermanent(err)).To(BeTrue())

			stored, _ := stores.RecoveryJobs().GetByID(ctx, 78)
			Expect(stored.Status).To(Equal(model.RecoveryJobStatusFailed))
		})

		It("should ignore unknown jobs", func() {
			Expect(svc.Process(ctx, 404)).To(Succeed())
		})
	})
})

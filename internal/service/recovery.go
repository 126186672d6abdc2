package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	invschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/store"
)

const bundleSchemaURL = "export-bundle.json"

var ErrInvalidBundle = errors.New("invalid export bundle")

// BundleError lists every problem found in an export bundle.
type BundleError struct {
	Problems []string
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidBundle, strings.Join(e.Problems, "; "))
}

func (e *BundleError) Unwrap() error { return ErrInvalidBundle }

type RecoveryService interface {
	Validate(ctx context.Context, raw []byte) (*domain.ExportBundle, error)
	Stage(ctx context.Context, raw []byte) (*model.RecoveryJob, error)
	Process(ctx context.Context, jobID int64) error
}

type recoveryService struct {
	jobs        store.RecoveryJobStore
	gateway     UpsertGateway
	memberships store.MembershipStore
	producer    queue.Producer
}

func NewRecoveryService(jobs store.RecoveryJobStore, gateway UpsertGateway, memberships store.MembershipStore, producer queue.Producer) RecoveryService {
	return &recoveryService{
		jobs:        jobs,
		gateway:     gateway,
		memberships: memberships,
		producer:    producer,
	}
}

// bundleSchema is reflected from domain.ExportBundle once per process.
var bundleSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	reflector := invschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	raw, err := json.Marshal(reflector.Reflect(&domain.ExportBundle{}))
	if err != nil {
		return nil, fmt.Errorf("encoding bundle schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing bundle schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(bundleSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding bundle schema: %w", err)
	}
	return compiler.Compile(bundleSchemaURL)
})

func (s *recoveryService) Validate(ctx context.Context, raw []byte) (*domain.ExportBundle, error) {
	schema, err := bundleSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &BundleError{Problems: []string{"bundle is not valid JSON"}}
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, &BundleError{Problems: schemaProblems(verr)}
		}
		return nil, fmt.Errorf("validating bundle: %w", err)
	}

	var bundle domain.ExportBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, &BundleError{Problems: []string{err.Error()}}
	}

	if problems := checkBundle(&bundle); len(problems) > 0 {
		slog.InfoContext(ctx, "export bundle rejected", "problems", len(problems))
		return nil, &BundleError{Problems: problems}
	}

	return &bundle, nil
}

// schemaProblems returns one line per failing keyword.
func schemaProblems(verr *jsonschema.ValidationError) []string {
	var problems []string
	for _, line := range strings.Split(verr.Error(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			problems = append(problems, strings.TrimPrefix(line, "- "))
		}
	}
	if len(problems) == 0 {
		problems = []string{verr.Error()}
	}
	return problems
}

// checkBundle enforces what the schema cannot express.
func checkBundle(bundle *domain.ExportBundle) []string {
	var problems []string

	emails := make(map[string]struct{}, len(bundle.Accounts))
	for i, account := range bundle.Accounts {
		email := domain.NormalizeEmail(account.Email)
		if _, dup := emails[email]; dup {
			problems = append(problems, fmt.Sprintf("accounts[%d]: duplicate email %s", i, email))
			continue
		}
		emails[email] = struct{}{}
	}

	members := make(map[string]struct{}, len(bundle.Memberships))
	for i, membership := range bundle.Memberships {
		email := domain.NormalizeEmail(membership.Email)
		if _, ok := emails[email]; !ok {
			problems = append(problems, fmt.Sprintf("memberships[%d]: %s is not in accounts", i, email))
		}
		if _, dup := members[email]; dup {
			problems = append(problems, fmt.Sprintf("memberships[%d]: duplicate membership for %s", i, email))
		}
		members[email] = struct{}{}
	}

	return problems
}

func (s *recoveryService) Stage(ctx context.Context, raw []byte) (*model.RecoveryJob, error) {
	bundle, err := s.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	job := &model.RecoveryJob{
		ID:                     id.New(),
		OrganizationExternalID: bundle.Organization.ExternalID,
		Status:                 model.RecoveryJobStatusStaged,
		Bundle:                 raw,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("staging recovery job: %w", err)
	}

	msg := queue.JobMessage{JobID: job.ID, Attempt: 1}
	if traceID := logger.TraceID(ctx); traceID != "" {
		msg.TraceID = &traceID
	}
	if err := s.producer.Enqueue(ctx, msg); err != nil {
		return nil, fmt.Errorf("enqueueing recovery job %d: %w", job.ID, err)
	}

	slog.InfoContext(ctx, "recovery job staged",
		"job_id", job.ID,
		"organization", job.OrganizationExternalID,
		"accounts", len(bundle.Accounts))

	return job, nil
}

// Process replays a staged bundle through the upsert gateway. Replaying the same
// job twice converges on the same rows.
func (s *recoveryService) Process(ctx context.Context, jobID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobID:     logger.Ptr(jobID),
		Component: "portal.service.recovery",
	})

	job, err := s.jobs.Claim(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "recovery job not claimable, skipping")
			return nil
		}
		return fmt.Errorf("claiming recovery job: %w", err)
	}

	var bundle domain.ExportBundle
	if err := json.Unmarshal(job.Bundle, &bundle); err != nil {
		s.fail(ctx, jobID, err)
		return Permanent(fmt.Errorf("%w: %v", ErrInvalidBundle, err))
	}

	if err := s.replay(ctx, &bundle); err != nil {
		s.fail(ctx, jobID, err)
		return err
	}

	if err := s.jobs.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("completing recovery job: %w", err)
	}

	slog.InfoContext(ctx, "recovery job completed",
		"attempt", job.Attempts,
		"accounts", len(bundle.Accounts),
		"memberships", len(bundle.Memberships))
	return nil
}

func (s *recoveryService) replay(ctx context.Context, bundle *domain.ExportBundle) error {
	org, _, err := s.gateway.UpsertOrganization(ctx, bundle.Organization.ExternalID, OrganizationFields{
		Name: &bundle.Organization.Name,
		Slug: bundle.Organization.Slug,
	})
	if err != nil {
		return fmt.Errorf("restoring organization: %w", err)
	}

	accountIDs := make(map[string]int64, len(bundle.Accounts))
	for _, a := range bundle.Accounts {
		account, _, err := s.gateway.UpsertAccount(ctx, a.Email, AccountFields{
			ExternalID:  a.ExternalID,
			Name:        a.Name,
			DefaultRole: model.AccountRole(a.Role),
		})
		if err != nil {
			return fmt.Errorf("restoring account %s: %w", a.Email, err)
		}
		accountIDs[account.Email] = account.ID
	}

	for _, m := range bundle.Memberships {
		accountID, ok := accountIDs[domain.NormalizeEmail(m.Email)]
		if !ok {
			return Permanent(fmt.Errorf("%w: membership for unknown account %s", ErrInvalidBundle, m.Email))
		}
		if err := s.memberships.Upsert(ctx, &model.Membership{
			ID:             id.New(),
			OrganizationID: org.ID,
			AccountID:      accountID,
			Role:           model.MembershipRole(m.Role),
		}); err != nil {
			return fmt.Errorf("restoring membership for %s: %w", m.Email, err)
		}
	}

	return nil
}

func (s *recoveryService) fail(ctx context.Context, jobID int64, cause error) {
	slog.ErrorContext(ctx, "recovery job failed", "error", cause)
	if err := s.jobs.Fail(ctx, jobID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to mark recovery job failed", "error", err)
	}
}

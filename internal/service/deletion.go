package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/core/config"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/store"
)

// DeletionReport summarizes a hard delete. DeletedRecords is keyed by step name.
type DeletionReport struct {
	AccountID      int64            `json:"id"`
	Email          string           `json:"email"`
	DeletedRecords map[string]int64 `json:"deletedRecords"`
	FailedSteps    []string         `json:"failedSteps,omitempty"`
	SuccessorID    *int64           `json:"successorId,omitempty"`
}

// Total is the number of rows removed or reassigned across all steps.
func (r *DeletionReport) Total() int64 {
	var total int64
	for _, n := range r.DeletedRecords {
		total += n
	}
	return total
}

type DeletionService interface {
	HardDelete(ctx context.Context, accountID int64) (*DeletionReport, error)
	HardDeleteByEmail(ctx context.Context, email string) (*DeletionReport, error)
	HardDeleteByExternalID(ctx context.Context, externalID string) (*DeletionReport, error)
	SoftDeleteByEmail(ctx context.Context, email string) error
}

type DeletionOptions struct {
	OwnedProjects config.OwnedProjectsPolicy
	// Plan defaults to model.DefaultDeletionPlan.
	Plan []model.DeletionStep
}

type deletionService struct {
	accounts store.AccountStore
	cascade  store.CascadeStore
	notifier queue.Notifier
	policy   config.OwnedProjectsPolicy
	plan     []model.DeletionStep
}

func NewDeletionService(accounts store.AccountStore, cascade store.CascadeStore, notifier queue.Notifier, opts DeletionOptions) DeletionService {
	plan := opts.Plan
	if len(plan) == 0 {
		plan = model.DefaultDeletionPlan()
	}
	policy := opts.OwnedProjects
	if policy == "" {
		policy = config.OwnedProjectsDelete
	}
	return &deletionService{
		accounts: accounts,
		cascade:  cascade,
		notifier: notifier,
		policy:   policy,
		plan:     plan,
	}
}

func (s *deletionService) HardDeleteByEmail(ctx context.Context, email string) (*DeletionReport, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("looking up account by email: %w", err)
	}
	return s.hardDelete(ctx, account)
}

func (s *deletionService) HardDeleteByExternalID(ctx context.Context, externalID string) (*DeletionReport, error) {
	account, err := s.accounts.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("looking up account by external id: %w", err)
	}
	return s.hardDelete(ctx, account)
}

func (s *deletionService) HardDelete(ctx context.Context, accountID int64) (*DeletionReport, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return s.hardDelete(ctx, account)
}

func (s *deletionService) hardDelete(ctx context.Context, account *model.Account) (*DeletionReport, error) {
	sc := logger.StartSpan(ctx, "deletion.hard_delete")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		AccountID: logger.Ptr(account.ID),
		Component: "portal.service.deletion",
	})

	report := &DeletionReport{
		AccountID:      account.ID,
		Email:          account.Email,
		DeletedRecords: make(map[string]int64, len(s.plan)),
	}

	successorID, err := s.resolveSuccessor(ctx, account.ID)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	report.SuccessorID = successorID

	slog.InfoContext(ctx, "hard delete started",
		"steps", len(s.plan),
		"owned_projects", s.policy,
		"successor_id", successorID)

	for _, step := range s.plan {
		if err := ctx.Err(); err != nil {
			sc.RecordError(err)
			return nil, fmt.Errorf("deletion interrupted before %s: %w", step.Name, err)
		}

		if step.Name == model.ProjectsStep && successorID != nil {
			step.Action = model.DeletionActionReassign
		}

		n, err := s.cascade.Execute(ctx, step, account.ID, successorID)
		if err != nil {
			if step.Terminal {
				sc.RecordError(err)
				slog.ErrorContext(ctx, "terminal deletion step failed",
					"step", step.Name,
					"error", err)
				return nil, fmt.Errorf("deleting %s: %w", step.Name, err)
			}

			metrics.DeletionStepFailures.WithLabelValues(step.Name).Inc()
			report.FailedSteps = append(report.FailedSteps, step.Name)
			slog.WarnContext(ctx, "deletion step failed, continuing",
				"step", step.Name,
				"table", step.Table,
				"error", err)
			continue
		}

		report.DeletedRecords[step.Name] = n
		slog.DebugContext(ctx, "deletion step completed",
			"step", step.Name,
			"action", step.Action,
			"rows", n)
	}

	slog.InfoContext(ctx, "hard delete completed",
		"rows", report.Total(),
		"failed_steps", len(report.FailedSteps))

	s.publish(ctx, account.ID)
	return report, nil
}

// resolveSuccessor returns nil when owned projects are deleted, or when no
// other admin shares an organization with the account.
func (s *deletionService) resolveSuccessor(ctx context.Context, accountID int64) (*int64, error) {
	if s.policy != config.OwnedProjectsTransfer {
		return nil, nil
	}

	successor, err := s.accounts.FindSuccessorAdmin(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "no successor admin, owned projects will be deleted")
			return nil, nil
		}
		return nil, fmt.Errorf("finding successor admin: %w", err)
	}
	return &successor, nil
}

func (s *deletionService) SoftDeleteByEmail(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := s.accounts.DeactivateByEmail(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("deactivating account: %w", err)
	}

	slog.InfoContext(ctx, "account deactivated", "email", email)
	return nil
}

func (s *deletionService) publish(ctx context.Context, accountID int64) {
	err := s.notifier.Publish(ctx, domain.Notification{
		Type:       domain.NotificationAccountDeleted,
		AccountID:  logger.Ptr(accountID),
		OccurredAt: time.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish deletion notification", "error", err)
	}
}

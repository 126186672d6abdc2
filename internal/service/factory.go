package service

import (
	"funnelhq.app/portal/core/config"
	"funnelhq.app/portal/internal/businessdata"
	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/store"
)

// Services wires the service layer from the stores and external clients.
type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	cfg          config.Config
	businessData businessdata.Client
	provider     identity.Provider
	notifier     queue.Notifier
	producer     queue.Producer
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	cfg config.Config,
	businessData businessdata.Client,
	provider identity.Provider,
	notifier queue.Notifier,
	producer queue.Producer,
) *Services {
	return &Services{
		stores:       stores,
		txRunner:     txRunner,
		cfg:          cfg,
		businessData: businessData,
		provider:     provider,
		notifier:     notifier,
		producer:     producer,
	}
}

func (s *Services) Gateway() UpsertGateway {
	return NewUpsertGateway(s.stores.Accounts(), s.stores.Organizations())
}

func (s *Services) Deletion() DeletionService {
	return NewDeletionService(s.stores.Accounts(), s.stores.Cascade(), s.notifier, DeletionOptions{
		OwnedProjects: s.cfg.Deletion.OwnedProjects,
	})
}

func (s *Services) Invitations() InvitationService {
	return NewInvitationService(s.stores, s.txRunner, s.provider, s.notifier, InvitationOptions{
		DashboardURL:       s.cfg.DashboardURL,
		Expiry:             s.cfg.Invitation.Expiry,
		OrganizationExpiry: s.cfg.Invitation.OrganizationExpiry,
	})
}

func (s *Services) Sync() SyncService {
	return NewSyncService(SyncDependencies{
		Gateway:         s.Gateway(),
		Accounts:        s.stores.Accounts(),
		Organizations:   s.stores.Organizations(),
		Memberships:     s.stores.Memberships(),
		Clients:         s.stores.Clients(),
		Deletion:        s.Deletion(),
		Invitations:     s.Invitations(),
		BusinessData:    s.businessData,
		Provider:        s.provider,
		Notifier:        s.notifier,
		DeletionTimeout: s.cfg.BusinessData.DeletionTimeout,
	})
}

// Retry applies RETRY_* settings, with a separate policy for user deletions.
func (s *Services) Retry() RetryCoordinator {
	defaults := RetryPolicy{
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		Delay:       s.cfg.Retry.Delay,
	}

	var opts []RetryOption
	if s.cfg.Retry.DeleteMaxAttempts > 0 || s.cfg.Retry.DeleteDelay > 0 {
		deletion := defaults
		if s.cfg.Retry.DeleteMaxAttempts > 0 {
			deletion.MaxAttempts = s.cfg.Retry.DeleteMaxAttempts
		}
		if s.cfg.Retry.DeleteDelay > 0 {
			deletion.Delay = s.cfg.Retry.DeleteDelay
		}
		opts = append(opts, WithPolicyFor(string(domain.EventUserDeleted), deletion))
	}
	return NewRetryCoordinator(defaults, opts...)
}

func (s *Services) Recovery() RecoveryService {
	return NewRecoveryService(s.stores.RecoveryJobs(), s.Gateway(), s.stores.Memberships(), s.producer)
}

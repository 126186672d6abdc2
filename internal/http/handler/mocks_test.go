package handler_test

import (
	"context"

	"funnelhq.app/portal/internal/domain"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/service"
)

type mockDeletionService struct {
	hardDeleteByEmailFn      func(ctx context.Context, email string) (*service.DeletionReport, error)
	hardDeleteByExternalIDFn func(ctx context.Context, externalID string) (*service.DeletionReport, error)
}

func (m *mockDeletionService) HardDelete(ctx context.Context, accountID int64) (*service.DeletionReport, error) {
	return nil, service.ErrAccountNotFound
}

func (m *mockDeletionService) HardDeleteByEmail(ctx context.Context, email string) (*service.DeletionReport, error) {
	if m.hardDeleteByEmailFn != nil {
		return m.hardDeleteByEmailFn(ctx, email)
	}
	return nil, service.ErrAccountNotFound
}

func (m *mockDeletionService) HardDeleteByExternalID(ctx context.Context, externalID string) (*service.DeletionReport, error) {
	if m.hardDeleteByExternalIDFn != nil {
		return m.hardDeleteByExternalIDFn(ctx, externalID)
	}
	return nil, service.ErrAccountNotFound
}

func (m *mockDeletionService) SoftDeleteByEmail(ctx context.Context, email string) error {
	return nil
}

type mockInvitationService struct {
	createFn             func(ctx context.Context, params service.CreateInvitationParams) (*model.Invitation, string, error)
	validateFn           func(ctx context.Context, token string) (*model.Invitation, error)
	acceptFn             func(ctx context.Context, token string, accountID int64, metadata model.AcceptMetadata) (*model.Invitation, error)
	revokeFn             func(ctx context.Context, id int64, revokedBy *int64, reason *string) (*model.Invitation, error)
	listByOrganizationFn func(ctx context.Context, orgID int64) ([]model.Invitation, error)
}

func (m *mockInvitationService) Create(ctx context.Context, params service.CreateInvitationParams) (*model.Invitation, string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, "", nil
}

func (m *mockInvitationService) Validate(ctx context.Context, token string) (*model.Invitation, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return nil, service.ErrInviteNotFound
}

func (m *mockInvitationService) Accept(ctx context.Context, token string, accountID int64, metadata model.AcceptMetadata) (*model.Invitation, error) {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, token, accountID, metadata)
	}
	return nil, service.ErrInviteNotFound
}

func (m *mockInvitationService) Revoke(ctx context.Context, id int64, revokedBy *int64, reason *string) (*model.Invitation, error) {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id, revokedBy, reason)
	}
	return nil, service.ErrInviteNotFound
}

func (m *mockInvitationService) Cancel(ctx context.Context, id int64, actor *int64) (*model.Invitation, error) {
	return nil, service.ErrInviteNotFound
}

func (m *mockInvitationService) ListByOrganization(ctx context.Context, orgID int64) ([]model.Invitation, error) {
	if m.listByOrganizationFn != nil {
		return m.listByOrganizationFn(ctx, orgID)
	}
	return nil, nil
}

func (m *mockInvitationService) ExpireStale(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockInvitationService) MirrorFromProvider(ctx context.Context, params service.MirrorInvitationParams) (*model.Invitation, error) {
	return nil, nil
}

func (m *mockInvitationService) MarkAcceptedByProvider(ctx context.Context, externalID, email string) (*model.Invitation, error) {
	return nil, nil
}

type mockRecoveryService struct {
	validateFn func(ctx context.Context, raw []byte) (*domain.ExportBundle, error)
	stageFn    func(ctx context.Context, raw []byte) (*model.RecoveryJob, error)
}

func (m *mockRecoveryService) Validate(ctx context.Context, raw []byte) (*domain.ExportBundle, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, raw)
	}
	return &domain.ExportBundle{}, nil
}

func (m *mockRecoveryService) Stage(ctx context.Context, raw []byte) (*model.RecoveryJob, error) {
	if m.stageFn != nil {
		return m.stageFn(ctx, raw)
	}
	return &model.RecoveryJob{}, nil
}

func (m *mockRecoveryService) Process(ctx context.Context, jobID int64) error {
	return nil
}

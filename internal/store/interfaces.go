package store

import (
	"context"
	"errors"
	"time"

	"funnelhq.app/portal/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses a unique-constraint race
var ErrConflict = errors.New("conflict")

// AccountStore defines the contract for account data access
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
	DeactivateByEmail(ctx context.Context, email string) error
	// FindSuccessorAdmin returns another admin of an organization the account belongs to.
	FindSuccessorAdmin(ctx context.Context, accountID int64) (int64, error)
}

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Organization, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
	Update(ctx context.Context, org *model.Organization) error
}

// MembershipStore defines the contract for organization membership data access
type MembershipStore interface {
	Upsert(ctx context.Context, membership *model.Membership) error
	Get(ctx context.Context, orgID, accountID int64) (*model.Membership, error)
	IsMemberByEmail(ctx context.Context, orgID int64, email string) (bool, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]model.Membership, error)
}

// InvitationStore defines the contract for invitation data access.
// Every transition only applies to pending rows and returns ErrNotFound otherwise.
type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByID(ctx context.Context, id int64) (*model.Invitation, error)
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Invitation, error)
	FindPending(ctx context.Context, email string, orgID *int64, now time.Time) (*model.Invitation, error)
	Accept(ctx context.Context, id int64, acceptedBy *int64, at time.Time, metadata *model.AcceptMetadata) (*model.Invitation, error)
	Revoke(ctx context.Context, id int64, revokedBy *int64, reason *string, at time.Time) (*model.Invitation, error)
	Cancel(ctx context.Context, id int64) (*model.Invitation, error)
	Expire(ctx context.Context, id int64) (*model.Invitation, error)
	// ExpireLapsedPending expires the pending invitations for email and scope whose deadline has passed.
	ExpireLapsedPending(ctx context.Context, email string, orgID *int64, now time.Time) ([]model.Invitation, error)
	ExpireStale(ctx context.Context, now time.Time) ([]model.Invitation, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]model.Invitation, error)
	SetExternalID(ctx context.Context, id int64, externalID string) error
}

// InvitationAuditStore is append-only
type InvitationAuditStore interface {
	Record(ctx context.Context, entry *model.InvitationAuditEntry) error
	ListByInvitation(ctx context.Context, invitationID int64) ([]model.InvitationAuditEntry, error)
}

// RoleAssignmentStore is append-only
type RoleAssignmentStore interface {
	Create(ctx context.Context, ra *model.RoleAssignment) error
	ListByAccount(ctx context.Context, accountID int64) ([]model.RoleAssignment, error)
}

type ClientStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type RecoveryJobStore interface {
	Create(ctx context.Context, job *model.RecoveryJob) error
	GetByID(ctx context.Context, id int64) (*model.RecoveryJob, error)
	Claim(ctx context.Context, id int64) (*model.RecoveryJob, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, errMsg string) error
}

// CascadeStore executes one step of an account deletion plan and returns the
// number of affected rows. successorID is required for reassign steps.
type CascadeStore interface {
	Execute(ctx context.Context, step model.DeletionStep, accountID int64, successorID *int64) (int64, error)
}

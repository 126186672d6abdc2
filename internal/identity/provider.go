// Package identity wraps the external identity and organization provider.
package identity

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("identity provider not configured")
	ErrUserNotFound  = errors.New("identity provider user not found")
)

// User is the subset of a provider user the portal reads.
type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL *string
}

type SendInvitationParams struct {
	Email                  string
	OrganizationExternalID string
	InviterExternalID      *string
	Role                   string
	ExpiresInDays          int
}

// Provider is the portal's view of the identity provider. Implementations are
// passed explicitly; there is no package-level client.
type Provider interface {
	GetUser(ctx context.Context, externalID string) (*User, error)
	// SendInvitation mirrors an invitation and returns the provider's invitation id.
	SendInvitation(ctx context.Context, params SendInvitationParams) (string, error)
	RevokeInvitation(ctx context.Context, externalID string) error
}

type noopProvider struct{}

// NewNoopProvider is used when no provider credentials are configured (the worker).
func NewNoopProvider() Provider {
	return noopProvider{}
}

func (noopProvider) GetUser(context.Context, string) (*User, error) {
	return nil, ErrNotConfigured
}

func (noopProvider) SendInvitation(context.Context, SendInvitationParams) (string, error) {
	return "", ErrNotConfigured
}

func (noopProvider) RevokeInvitation(context.Context, string) error {
	return ErrNotConfigured
}

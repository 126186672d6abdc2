package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"github.com/workos/workos-go/v6/pkg/workos_errors"
)

type workOSProvider struct {
	client *usermanagement.Client
}

// NewWorkOSProvider builds a provider over a dedicated WorkOS user management client.
func NewWorkOSProvider(apiKey string) Provider {
	return &workOSProvider{client: usermanagement.NewClient(apiKey)}
}

// NewWorkOSProviderWithEndpoint points the client at a non-default API host.
func NewWorkOSProviderWithEndpoint(apiKey, endpoint string) Provider {
	client := usermanagement.NewClient(apiKey)
	client.Endpoint = strings.TrimRight(endpoint, "/")
	return &workOSProvider{client: client}
}

func (p *workOSProvider) GetUser(ctx context.Context, externalID string) (*User, error) {
	u, err := p.client.GetUser(ctx, usermanagement.GetUserOpts{User: externalID})
	if err != nil {
		var httpErr workos_errors.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, externalID)
		}
		return nil, fmt.Errorf("fetching user %s: %w", externalID, err)
	}

	user := &User{
		ID:    u.ID,
		Email: strings.ToLower(strings.TrimSpace(u.Email)),
		Name:  buildUserName(u),
	}
	if u.ProfilePictureURL != "" {
		user.AvatarURL = &u.ProfilePictureURL
	}
	return user, nil
}

func (p *workOSProvider) SendInvitation(ctx context.Context, params SendInvitationParams) (string, error) {
	opts := usermanagement.SendInvitationOpts{
		Email:          params.Email,
		OrganizationID: params.OrganizationExternalID,
		ExpiresInDays:  params.ExpiresInDays,
		RoleSlug:       params.Role,
	}
	if params.InviterExternalID != nil {
		opts.InviterUserID = *params.InviterExternalID
	}

	inv, err := p.client.SendInvitation(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("sending invitation to %s: %w", params.Email, err)
	}
	return inv.ID, nil
}

func (p *workOSProvider) RevokeInvitation(ctx context.Context, externalID string) error {
	if _, err := p.client.RevokeInvitation(ctx, usermanagement.RevokeInvitationOpts{Invitation: externalID}); err != nil {
		return fmt.Errorf("revoking invitation %s: %w", externalID, err)
	}
	return nil
}

func buildUserName(user usermanagement.User) string {
	if user.FirstName != "" && user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.LastName != "" {
		return user.LastName
	}
	return user.Email
}

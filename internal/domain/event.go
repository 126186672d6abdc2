package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IdentityEventType is the type string carried by identity provider webhooks.
type IdentityEventType string

const (
	EventUserCreated                    IdentityEventType = "user.created"
	EventUserUpdated                    IdentityEventType = "user.updated"
	EventUserDeleted                    IdentityEventType = "user.deleted"
	EventOrganizationCreated            IdentityEventType = "organization.created"
	EventOrganizationMembershipCreated  IdentityEventType = "organizationMembership.created"
	EventOrganizationInvitationCreated  IdentityEventType = "organizationInvitation.created"
	EventOrganizationInvitationAccepted IdentityEventType = "organizationInvitation.accepted"
)

// IdentityEvent is the verified webhook envelope. Data is decoded lazily by the
// handler registered for Type.
type IdentityEvent struct {
	Type       IdentityEventType `json:"type"`
	Data       json.RawMessage   `json:"data"`
	MessageID  string            `json:"-"` // message-id header
	ReceivedAt time.Time         `json:"-"`
}

// Decode unmarshals Data into v.
func (e *IdentityEvent) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserPayload is the data of user.created, user.updated and user.deleted.
// Deletions only carry ID.
type UserPayload struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	LastSignInAt          *int64         `json:"last_sign_in_at"` // unix millis
	Deleted               bool           `json:"deleted"`
}

// PrimaryEmail returns the primary address, falling back to the first one.
func (p UserPayload) PrimaryEmail() string {
	for _, addr := range p.EmailAddresses {
		if addr.ID == p.PrimaryEmailAddressID && addr.EmailAddress != "" {
			return NormalizeEmail(addr.EmailAddress)
		}
	}
	for _, addr := range p.EmailAddresses {
		if addr.EmailAddress != "" {
			return NormalizeEmail(addr.EmailAddress)
		}
	}
	return ""
}

// FullName joins first and last name, returning nil when both are empty.
func (p UserPayload) FullName() *string {
	parts := make([]string, 0, 2)
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*p.LastName))
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}

func (p UserPayload) LastSignIn() *time.Time {
	if p.LastSignInAt == nil || *p.LastSignInAt == 0 {
		return nil
	}
	t := time.UnixMilli(*p.LastSignInAt).UTC()
	return &t
}

type OrganizationPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      *string `json:"slug"`
	CreatedBy *string `json:"created_by"`
}

type PublicUserData struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
}

type MembershipPayload struct {
	ID             string              `json:"id"`
	Organization   OrganizationPayload `json:"organization"`
	PublicUserData PublicUserData      `json:"public_user_data"`
	Role           string              `json:"role"`
}

type InvitationPayload struct {
	ID             string `json:"id"`
	EmailAddress   string `json:"email_address"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	Status         string `json:"status"`
}

// NormalizeEmail lower-cases and trims an address so it can be used as a natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

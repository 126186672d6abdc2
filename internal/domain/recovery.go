package domain

// ExportBundle is an organization export used to rebuild state after data loss.
type ExportBundle struct {
	Version      int                `json:"version" jsonschema:"minimum=1,maximum=1"`
	Organization BundleOrganization `json:"organization"`
	Accounts     []BundleAccount    `json:"accounts" jsonschema:"minItems=1"`
	Memberships  []BundleMembership `json:"memberships"`
}

type BundleOrganization struct {
	ExternalID string  `json:"external_id" jsonschema:"minLength=1"`
	Name       string  `json:"name" jsonschema:"minLength=1"`
	Slug       *string `json:"slug,omitempty"`
}

type BundleAccount struct {
	Email      string  `json:"email" jsonschema:"format=email"`
	ExternalID *string `json:"external_id,omitempty"`
	Name       *string `json:"name,omitempty"`
	Role       string  `json:"role" jsonschema:"enum=admin,enum=team_member,enum=client"`
}

type BundleMembership struct {
	Email string `json:"email" jsonschema:"format=email"`
	Role  string `json:"role" jsonschema:"enum=admin,enum=member"`
}

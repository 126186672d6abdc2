package model

import "time"

const (
	OrganizationPlanTrial = "trial"
	TrialPeriod           = 14 * 24 * time.Hour
)

// OrganizationFeatures is stored as JSONB. -1 means unlimited.
type OrganizationFeatures struct {
	MaxProjects  int `json:"max_projects"`
	MaxStorageGB int `json:"max_storage_gb"`
	MaxTeam      int `json:"max_team"`
}

const Unlimited = -1

func UnlimitedFeatures() OrganizationFeatures {
	return OrganizationFeatures{
		MaxProjects:  Unlimited,
		MaxStorageGB: Unlimited,
		MaxTeam:      Unlimited,
	}
}

type Organization struct {
	ID          int64                `json:"id"`
	ExternalID  string               `json:"external_id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Plan        string               `json:"plan"`
	TrialEndsAt *time.Time           `json:"trial_ends_at,omitempty"`
	CreatedBy   *int64               `json:"created_by,omitempty"`
	Features    OrganizationFeatures `json:"features"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

package dto

import "funnelhq.app/portal/internal/domain"

type BundleSummary struct {
	Valid                  bool   `json:"valid"`
	OrganizationExternalID string `json:"organizationExternalId"`
	Accounts               int    `json:"accounts"`
	Memberships            int    `json:"memberships"`
}

func ToBundleSummary(bundle *domain.ExportBundle) BundleSummary {
	return BundleSummary{
		Valid:                  true,
		OrganizationExternalID: bundle.Organization.ExternalID,
		Accounts:               len(bundle.Accounts),
		Memberships:            len(bundle.Memberships),
	}
}

type StageRecoveryResponse struct {
	JobID  int64  `json:"jobId,string"`
	Status string `json:"status"`
}

package model

import "time"

// RoleAssignment is an append-only record of a role granted to an account.
type RoleAssignment struct {
	ID            int64       `json:"id"`
	AccountID     int64       `json:"account_id"`
	Role          AccountRole `json:"role"`
	AssignedBy    *int64      `json:"assigned_by,omitempty"`
	ProjectID     *int64      `json:"project_id,omitempty"`
	Reason        string      `json:"reason"`
	EffectiveFrom time.Time   `json:"effective_from"`
	CreatedAt     time.Time   `json:"created_at"`
}

package model

import (
	"encoding/json"
	"time"
)

type RecoveryJobStatus string

const (
	RecoveryJobStatusStaged     RecoveryJobStatus = "staged"
	RecoveryJobStatusProcessing RecoveryJobStatus = "processing"
	RecoveryJobStatusCompleted  RecoveryJobStatus = "completed"
	RecoveryJobStatusFailed     RecoveryJobStatus = "failed"
)

// RecoveryJob is a validated organization export bundle waiting to be replayed.
type RecoveryJob struct {
	ID                     int64             `json:"id"`
	OrganizationExternalID string            `json:"organization_external_id"`
	Status                 RecoveryJobStatus `json:"status"`
	Bundle                 json.RawMessage   `json:"-"`
	Attempts               int32             `json:"attempts"`
	LastError              *string           `json:"last_error,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty"`
}

package queue

type TaskType string

const (
	// TaskTypeRecoveryImport replays a staged organization export bundle.
	TaskTypeRecoveryImport TaskType = "recovery_import"
)

package queue

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Stream field names for recovery job messages.
const (
	fieldTaskType  = "task_type"
	fieldJobID     = "job_id"
	fieldAttempt   = "attempt"
	fieldTraceID   = "trace_id"
	fieldLastError = "last_error"
)

// Message is a decoded recovery job delivery.
type Message struct {
	ID        string
	TaskType  TaskType
	JobID     int64
	Attempt   int
	TraceID   string
	LastError string
	Raw       redis.XMessage
}

// ParseMessage decodes a stream entry. Entries written before task types
// existed default to a recovery import on attempt 1.
func ParseMessage(msg redis.XMessage) (Message, error) {
	taskType := TaskType(stringField(msg.Values, fieldTaskType))
	if taskType == "" {
		taskType = TaskTypeRecoveryImport
	}
	if taskType != TaskTypeRecoveryImport {
		return Message{}, fmt.Errorf("unknown task_type %q", taskType)
	}

	raw, ok := msg.Values[fieldJobID]
	if !ok {
		return Message{}, fmt.Errorf("missing %s", fieldJobID)
	}
	jobID, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("parsing %s: %w", fieldJobID, err)
	}

	attempt := 1
	if s := stringField(msg.Values, fieldAttempt); s != "" {
		if attempt, err = strconv.Atoi(s); err != nil {
			return Message{}, fmt.Errorf("parsing %s: %w", fieldAttempt, err)
		}
		if attempt < 1 {
			attempt = 1
		}
	}

	return Message{
		ID:        msg.ID,
		TaskType:  taskType,
		JobID:     jobID,
		Attempt:   attempt,
		TraceID:   stringField(msg.Values, fieldTraceID),
		LastError: stringField(msg.Values, fieldLastError),
		Raw:       msg,
	}, nil
}

// streamValues encodes a job for XADD with the given attempt number.
func streamValues(jobID int64, traceID string, attempt int) map[string]any {
	if attempt < 1 {
		attempt = 1
	}
	values := map[string]any{
		fieldTaskType: string(TaskTypeRecoveryImport),
		fieldJobID:    jobID,
		fieldAttempt:  attempt,
	}
	if traceID != "" {
		values[fieldTraceID] = traceID
	}
	return values
}

func stringField(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok || raw == nil {
		return ""
	}
	return fmt.Sprint(raw)
}

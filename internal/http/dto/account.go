package dto

import "funnelhq.app/portal/internal/service"

type DeletedUser struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
}

type HardDeleteResponse struct {
	Success        bool             `json:"success"`
	User           DeletedUser      `json:"user"`
	DeletedRecords map[string]int64 `json:"deletedRecords"`
	FailedSteps    []string         `json:"failedSteps,omitempty"`
	SuccessorID    *int64           `json:"successorId,omitempty,string"`
}

func ToHardDeleteResponse(report *service.DeletionReport) HardDeleteResponse {
	return HardDeleteResponse{
		Success:        true,
		User:           DeletedUser{ID: report.AccountID, Email: report.Email},
		DeletedRecords: report.DeletedRecords,
		FailedSteps:    report.FailedSteps,
		SuccessorID:    report.SuccessorID,
	}
}

package dto

import (
	"time"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD wire date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}

// AssignRetakesRequest bulk-creates one assignment per student for an exam.
type AssignRetakesRequest struct {
	ExamID        string   `json:"examId" validate:"required"`
	StudentIDs    []string `json:"studentIds" validate:"required,min=1,dive,required"`
	ScheduledDate string   `json:"scheduledDate" validate:"required"`
}

// PostponeRetakeRequest reschedules an assignment and resets it to pending.
type PostponeRetakeRequest struct {
	NewDate string `json:"newDate" validate:"required"`
	Note    string `json:"note"`
}

// MarkAbsentRequest flags the student absent for the scheduled retake.
type MarkAbsentRequest struct {
	Note string `json:"note"`
}

// CompleteRetakeRequest marks the remediation as done today.
type CompleteRetakeRequest struct {
	Note string `json:"note"`
}

// EditDateRequest corrects the scheduled date without counting a postpone.
type EditDateRequest struct {
	NewDate string `json:"newDate" validate:"required"`
}

// ChangeStatusRequest sets an explicit lifecycle status.
type ChangeStatusRequest struct {
	Status models.RetakeStatus `json:"status" validate:"required"`
	Note   string              `json:"note"`
}

// ChangeManagementStatusRequest sets the free-text management label.
type ChangeManagementStatusRequest struct {
	ManagementStatus string `json:"managementStatus" validate:"required"`
}

// UndoRetakeRequest reverts the most recent history entry.
type UndoRetakeRequest struct {
	HistoryEntryID string `json:"historyEntryId" validate:"required"`
}

// RetakeQuery mirrors supported listing filters.
type RetakeQuery struct {
	From      string
	To        string
	Status    string
	CourseID  string
	ExamID    string
	StudentID string
	Page      int
	PageSize  int
}

package models

import "time"

// RetakeStatus captures the lifecycle state of a retake assignment.
type RetakeStatus string

const (
	RetakeStatusPending   RetakeStatus = "PENDING"
	RetakeStatusCompleted RetakeStatus = "COMPLETED"
	RetakeStatusAbsent    RetakeStatus = "ABSENT"
)

// Valid reports whether the status is a known lifecycle state.
func (s RetakeStatus) Valid() bool {
	switch s {
	case RetakeStatusPending, RetakeStatusCompleted, RetakeStatusAbsent:
		return true
	}
	return false
}

// RetakeActionType enumerates the recorded history actions.
type RetakeActionType string

const (
	RetakeActionAssign                 RetakeActionType = "ASSIGN"
	RetakeActionPostpone               RetakeActionType = "POSTPONE"
	RetakeActionAbsent                 RetakeActionType = "ABSENT"
	RetakeActionComplete               RetakeActionType = "COMPLETE"
	RetakeActionStatusChange           RetakeActionType = "STATUS_CHANGE"
	RetakeActionManagementStatusChange RetakeActionType = "MANAGEMENT_STATUS_CHANGE"
	RetakeActionDateEdit               RetakeActionType = "DATE_EDIT"
)

// RetakeAssignment is one remediation task per student and exam.
// postpone_count and absent_count change only inside the transition
// transactions so they always match the surviving history rows.
type RetakeAssignment struct {
	ID               string        `db:"id" json:"id"`
	ExamID           string        `db:"exam_id" json:"examId"`
	StudentID        string        `db:"student_id" json:"studentId"`
	Status           RetakeStatus  `db:"status" json:"status"`
	ManagementStatus *string       `db:"management_status" json:"managementStatus,omitempty"`
	ScheduledDate    *time.Time    `db:"scheduled_date" json:"scheduledDate,omitempty"`
	PostponeCount    int           `db:"postpone_count" json:"postponeCount"`
	AbsentCount      int           `db:"absent_count" json:"absentCount"`
	Note             *string       `db:"note" json:"note,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// RetakeAssignmentDetail joins exam and student display fields for listings.
type RetakeAssignmentDetail struct {
	RetakeAssignment
	ExamTitle    string  `db:"exam_title" json:"examTitle"`
	CourseID     string  `db:"course_id" json:"courseId"`
	CourseName   string  `db:"course_name" json:"courseName"`
	StudentName  string  `db:"student_name" json:"studentName"`
	StudentPhone *string `db:"student_phone" json:"studentPhone,omitempty"`
}

// RetakeHistoryEntry is one append-only row of the audit trail. seq is a
// database-assigned order key; the entry with the greatest seq per
// assignment is the only one the undo path may target.
type RetakeHistoryEntry struct {
	ID                       string           `db:"id" json:"id"`
	Seq                      int64            `db:"seq" json:"seq"`
	RetakeAssignmentID       string           `db:"retake_assignment_id" json:"retakeAssignmentId"`
	ActionType               RetakeActionType `db:"action_type" json:"actionType"`
	PreviousDate             *time.Time       `db:"previous_date" json:"previousDate,omitempty"`
	NewDate                  *time.Time       `db:"new_date" json:"newDate,omitempty"`
	PreviousStatus           *RetakeStatus    `db:"previous_status" json:"previousStatus,omitempty"`
	NewStatus                *RetakeStatus    `db:"new_status" json:"newStatus,omitempty"`
	PreviousManagementStatus *string          `db:"previous_management_status" json:"previousManagementStatus,omitempty"`
	NewManagementStatus      *string          `db:"new_management_status" json:"newManagementStatus,omitempty"`
	Note                     *string          `db:"note" json:"note,omitempty"`
	PerformedBy              *string          `db:"performed_by" json:"performedBy,omitempty"`
	CreatedAt                time.Time        `db:"created_at" json:"createdAt"`
}

// RetakeActivityEntry is a feed row joined with student/exam context.
type RetakeActivityEntry struct {
	RetakeHistoryEntry
	ExamTitle   string `db:"exam_title" json:"examTitle"`
	StudentName string `db:"student_name" json:"studentName"`
}

// RetakeFilter constrains assignment listings.
type RetakeFilter struct {
	From      *time.Time
	To        *time.Time
	Status    RetakeStatus
	CourseID  string
	ExamID    string
	StudentID string
	Page      int
	PageSize  int
}

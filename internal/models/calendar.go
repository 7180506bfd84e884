package models

// RetakeCalendarDay groups the retakes scheduled on one date.
type RetakeCalendarDay struct {
	Date           string                   `json:"date"`
	Total          int                      `json:"total"`
	PendingCount   int                      `json:"pendingCount"`
	CompletedCount int                      `json:"completedCount"`
	AbsentCount    int                      `json:"absentCount"`
	Assignments    []RetakeAssignmentDetail `json:"assignments"`
}

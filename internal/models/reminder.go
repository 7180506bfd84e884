package models

import "time"

// RetakeReminder is one upcoming pending retake flagged for notification.
type RetakeReminder struct {
	AssignmentID  string    `db:"assignment_id" json:"assignmentId"`
	AcademyID     string    `db:"academy_id" json:"academyId"`
	ExamTitle     string    `db:"exam_title" json:"examTitle"`
	StudentName   string    `db:"student_name" json:"studentName"`
	StudentPhone  *string   `db:"student_phone" json:"studentPhone,omitempty"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduledDate"`
}

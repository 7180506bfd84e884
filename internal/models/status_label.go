package models

import "time"

// StatusLabel is a tenant-scoped management status entry. Assignments
// reference labels by name, not id, so renaming or removing a label never
// rewrites historical assignments.
type StatusLabel struct {
	ID           string    `db:"id" json:"id"`
	AcademyID    string    `db:"academy_id" json:"academyId"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	Color        string    `db:"color" json:"color"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

const historyColumns = `id, seq, retake_assignment_id, action_type, previous_date, new_date,
       previous_status, new_status, previous_management_status, new_management_status,
       note, performed_by, created_at`

// RetakeHistoryRepository reads the append-only history trail. Writes happen
// only inside the RetakeRepository transactions.
type RetakeHistoryRepository struct {
	db *sqlx.DB
}

// NewRetakeHistoryRepository constructs the repository.
func NewRetakeHistoryRepository(db *sqlx.DB) *RetakeHistoryRepository {
	return &RetakeHistoryRepository{db: db}
}

// ListByAssignment returns every entry for one assignment, newest first.
// Scoped to the academy through the owning assignment.
func (r *RetakeHistoryRepository) ListByAssignment(ctx context.Context, academyID, assignmentID string) ([]models.RetakeHistoryEntry, error) {
	query := `SELECT ` + qualifyHistoryColumns("h") + `
        FROM retake_history h
        JOIN retake_assignments r ON r.id = h.retake_assignment_id
        JOIN exams e ON e.id = r.exam_id
        WHERE h.retake_assignment_id = $1 AND e.academy_id = $2
        ORDER BY h.seq DESC`
	var entries []models.RetakeHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, assignmentID, academyID); err != nil {
		return nil, fmt.Errorf("list retake history: %w", err)
	}
	return entries, nil
}

// ListRecent returns the newest N entries across all of the academy's
// assignments, for the workspace activity feed.
func (r *RetakeHistoryRepository) ListRecent(ctx context.Context, academyID string, limit int) ([]models.RetakeActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + qualifyHistoryColumns("h") + `,
       e.title AS exam_title, s.full_name AS student_name
        FROM retake_history h
        JOIN retake_assignments r ON r.id = h.retake_assignment_id
        JOIN exams e ON e.id = r.exam_id
        JOIN students s ON s.id = r.student_id
        WHERE e.academy_id = $1
        ORDER BY h.seq DESC
        LIMIT $2`
	var entries []models.RetakeActivityEntry
	if err := r.db.SelectContext(ctx, &entries, query, academyID, limit); err != nil {
		return nil, fmt.Errorf("list recent retake history: %w", err)
	}
	return entries, nil
}

// CountByAction returns how many entries of one action type an assignment
// still has. The stored counters must agree with these counts.
func (r *RetakeHistoryRepository) CountByAction(ctx context.Context, assignmentID string, action models.RetakeActionType) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM retake_history WHERE retake_assignment_id = $1 AND action_type = $2`,
		assignmentID, action)
	if err != nil {
		return 0, fmt.Errorf("count retake history: %w", err)
	}
	return count, nil
}

func qualifyHistoryColumns(alias string) string {
	return alias + `.id, ` + alias + `.seq, ` + alias + `.retake_assignment_id, ` + alias + `.action_type, ` +
		alias + `.previous_date, ` + alias + `.new_date, ` + alias + `.previous_status, ` + alias + `.new_status, ` +
		alias + `.previous_management_status, ` + alias + `.new_management_status, ` +
		alias + `.note, ` + alias + `.performed_by, ` + alias + `.created_at`
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

// Sentinel errors surfaced to the service layer for translation.
var (
	// ErrDuplicateAssignment signals an existing (exam, student) pair.
	ErrDuplicateAssignment = errors.New("retake assignment already exists for exam and student")
	// ErrStaleHistoryEntry signals that the targeted entry is no longer the newest.
	ErrStaleHistoryEntry = errors.New("history entry is not the most recent")
	// ErrEmptyHistory signals an assignment with no history rows left.
	ErrEmptyHistory = errors.New("assignment has no history entries")
)

const pqUniqueViolation = "23505"

// RetakePatch describes the column updates a single transition or undo applies
// to an assignment row. Nil pointer fields are left untouched; the Set flags
// distinguish "leave as is" from "write NULL" for nullable columns.
type RetakePatch struct {
	Status              *models.RetakeStatus
	SetManagementStatus bool
	ManagementStatus    *string
	SetScheduledDate    bool
	ScheduledDate       *time.Time
	PostponeDelta       int
	AbsentDelta         int
	Note                *string
}

// Empty reports whether the patch would change nothing.
func (p *RetakePatch) Empty() bool {
	if p == nil {
		return true
	}
	return p.Status == nil && !p.SetManagementStatus && !p.SetScheduledDate &&
		p.PostponeDelta == 0 && p.AbsentDelta == 0 && p.Note == nil
}

// TransitionFunc computes the patch and the single history entry for one
// transition, given the locked current row. Returning an error aborts the
// transaction with no effect.
type TransitionFunc func(current *models.RetakeAssignment) (*RetakePatch, *models.RetakeHistoryEntry, error)

// UndoFunc computes the reversal patch for the newest history entry.
type UndoFunc func(current *models.RetakeAssignment, latest *models.RetakeHistoryEntry) (*RetakePatch, error)

// RetakeRepository persists retake assignments and their history trail.
// Every mutation runs as one transaction: the assignment row is locked first,
// so concurrent transitions on the same assignment serialize and the stored
// counters always match the surviving history rows.
type RetakeRepository struct {
	db *sqlx.DB
}

// NewRetakeRepository constructs the repository.
func NewRetakeRepository(db *sqlx.DB) *RetakeRepository {
	return &RetakeRepository{db: db}
}

const assignmentColumns = `r.id, r.exam_id, r.student_id, r.status, r.management_status,
       r.scheduled_date, r.postpone_count, r.absent_count, r.note, r.created_at, r.updated_at`

const assignmentScope = ` FROM retake_assignments r
        JOIN exams e ON e.id = r.exam_id
        JOIN students s ON s.id = r.student_id
        WHERE r.id = $1 AND e.academy_id = $2 AND s.academy_id = $2`

// CreateBatch inserts one assignment plus one ASSIGN history entry per student
// in a single transaction. The exam and every student must resolve inside the
// academy or the whole batch fails with sql.ErrNoRows.
func (r *RetakeRepository) CreateBatch(ctx context.Context, academyID string, assignments []*models.RetakeAssignment, entries []*models.RetakeHistoryEntry) error {
	if len(assignments) == 0 || len(assignments) != len(entries) {
		return fmt.Errorf("create retakes: mismatched batch of %d assignments and %d entries", len(assignments), len(entries))
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create retakes: %w", err)
	}

	var examOK bool
	if err := tx.GetContext(ctx, &examOK,
		`SELECT EXISTS (SELECT 1 FROM exams WHERE id = $1 AND academy_id = $2)`,
		assignments[0].ExamID, academyID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("verify exam: %w", err)
	}
	if !examOK {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	studentIDs := make([]string, len(assignments))
	for i, a := range assignments {
		studentIDs[i] = a.StudentID
	}
	var studentCount int
	if err := tx.GetContext(ctx, &studentCount,
		`SELECT COUNT(*) FROM students WHERE academy_id = $1 AND id = ANY($2)`,
		academyID, pq.Array(studentIDs)); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("verify students: %w", err)
	}
	if studentCount != len(studentIDs) {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	now := time.Now().UTC()
	for i := range assignments {
		a := assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.CreatedAt = now
		a.UpdatedAt = now
		const query = `INSERT INTO retake_assignments
        (id, exam_id, student_id, status, management_status, scheduled_date, postpone_count, absent_count, note, created_at, updated_at)
        VALUES (:id, :exam_id, :student_id, :status, :management_status, :scheduled_date, :postpone_count, :absent_count, :note, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
			tx.Rollback() //nolint:errcheck
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				return ErrDuplicateAssignment
			}
			return fmt.Errorf("insert retake assignment: %w", err)
		}

		entries[i].RetakeAssignmentID = a.ID
		if err := insertHistoryTx(ctx, tx, entries[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create retakes: %w", err)
	}
	return nil
}

// FindByID fetches one assignment scoped to the academy.
func (r *RetakeRepository) FindByID(ctx context.Context, academyID, id string) (*models.RetakeAssignment, error) {
	var assignment models.RetakeAssignment
	if err := r.db.GetContext(ctx, &assignment, `SELECT `+assignmentColumns+assignmentScope, id, academyID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindDetail fetches one assignment joined with exam and student fields.
func (r *RetakeRepository) FindDetail(ctx context.Context, academyID, id string) (*models.RetakeAssignmentDetail, error) {
	query := `SELECT ` + assignmentColumns + `,
       e.title AS exam_title, e.course_id, c.name AS course_name,
       s.full_name AS student_name, s.phone AS student_phone
        FROM retake_assignments r
        JOIN exams e ON e.id = r.exam_id
        JOIN courses c ON c.id = e.course_id
        JOIN students s ON s.id = r.student_id
        WHERE r.id = $1 AND e.academy_id = $2 AND s.academy_id = $2`
	var detail models.RetakeAssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, academyID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns assignments matching the filter, newest schedule first.
func (r *RetakeRepository) List(ctx context.Context, academyID string, filter models.RetakeFilter) ([]models.RetakeAssignmentDetail, *models.Pagination, error) {
	base := ` FROM retake_assignments r
        JOIN exams e ON e.id = r.exam_id
        JOIN courses c ON c.id = e.course_id
        JOIN students s ON s.id = r.student_id
        WHERE e.academy_id = $1 AND s.academy_id = $1`
	args := []interface{}{academyID}

	conditions := strings.Builder{}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions.WriteString(fmt.Sprintf(" AND r.scheduled_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions.WriteString(fmt.Sprintf(" AND r.scheduled_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions.WriteString(fmt.Sprintf(" AND r.status = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions.WriteString(fmt.Sprintf(" AND e.course_id = $%d", len(args)))
	}
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		conditions.WriteString(fmt.Sprintf(" AND r.exam_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions.WriteString(fmt.Sprintf(" AND r.student_id = $%d", len(args)))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base+conditions.String(), args...); err != nil {
		return nil, nil, fmt.Errorf("count retakes: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 5000 {
		pageSize = 5000
	}

	query := `SELECT ` + assignmentColumns + `,
       e.title AS exam_title, e.course_id, c.name AS course_name,
       s.full_name AS student_name, s.phone AS student_phone` + base + conditions.String() +
		fmt.Sprintf(" ORDER BY r.scheduled_date DESC NULLS LAST, r.created_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var items []models.RetakeAssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list retakes: %w", err)
	}

	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Transition runs one state-machine operation as a single atomic unit: lock
// the assignment row, let the caller compute patch and history entry from the
// locked state, apply both, commit. Concurrent transitions on the same
// assignment therefore never read the same "previous" snapshot.
func (r *RetakeRepository) Transition(ctx context.Context, academyID, id string, fn TransitionFunc) (*models.RetakeAssignment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}

	current, err := lockAssignmentTx(ctx, tx, academyID, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	patch, entry, err := fn(current)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := applyPatchTx(ctx, tx, id, patch); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	entry.RetakeAssignmentID = id
	if err := insertHistoryTx(ctx, tx, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	updated, err := reloadAssignmentTx(ctx, tx, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return updated, nil
}

// Undo reverts the newest history entry. The "still the latest" check runs
// after the assignment row lock is held, inside the same transaction that
// applies the reversal patch and deletes the entry, so a concurrent append
// cannot slip between validation and effect.
func (r *RetakeRepository) Undo(ctx context.Context, academyID, id, entryID string, fn UndoFunc) (*models.RetakeAssignment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin undo: %w", err)
	}

	current, err := lockAssignmentTx(ctx, tx, academyID, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	var latest models.RetakeHistoryEntry
	err = tx.GetContext(ctx, &latest, `SELECT `+historyColumns+`
        FROM retake_history WHERE retake_assignment_id = $1
        ORDER BY seq DESC LIMIT 1`, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmptyHistory
		}
		return nil, fmt.Errorf("load latest history entry: %w", err)
	}
	if latest.ID != entryID {
		tx.Rollback() //nolint:errcheck
		return nil, ErrStaleHistoryEntry
	}

	patch, err := fn(current, &latest)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := applyPatchTx(ctx, tx, id, patch); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM retake_history WHERE id = $1 AND seq = $2`, latest.ID, latest.Seq)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete history entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("check history delete rows: %w", err)
	}
	if rows == 0 {
		tx.Rollback() //nolint:errcheck
		return nil, ErrStaleHistoryEntry
	}

	updated, err := reloadAssignmentTx(ctx, tx, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit undo: %w", err)
	}
	return updated, nil
}

// Delete removes an assignment; history rows go with it via the storage-level
// cascade.
func (r *RetakeRepository) Delete(ctx context.Context, academyID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM retake_assignments r
        USING exams e
        WHERE r.id = $1 AND e.id = r.exam_id AND e.academy_id = $2`, id, academyID)
	if err != nil {
		return fmt.Errorf("delete retake assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check retake delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDue returns pending assignments scheduled inside [from, to] across all
// academies, oldest date first. The reminder loop runs once for the whole
// deployment, so this query is deliberately not tenant scoped.
func (r *RetakeRepository) ListDue(ctx context.Context, from, to time.Time, limit int) ([]models.RetakeReminder, error) {
	var reminders []models.RetakeReminder
	query := `SELECT r.id AS assignment_id, e.academy_id, e.title AS exam_title,
	       s.full_name AS student_name, s.phone AS student_phone, r.scheduled_date
	FROM retake_assignments r
	JOIN exams e ON e.id = r.exam_id
	JOIN students s ON s.id = r.student_id
	WHERE r.status = $1 AND r.scheduled_date BETWEEN $2 AND $3
	ORDER BY r.scheduled_date, r.created_at
	LIMIT $4`
	if err := r.db.SelectContext(ctx, &reminders, query, models.RetakeStatusPending, from, to, limit); err != nil {
		return nil, fmt.Errorf("list due retakes: %w", err)
	}
	return reminders, nil
}

func lockAssignmentTx(ctx context.Context, tx *sqlx.Tx, academyID, id string) (*models.RetakeAssignment, error) {
	var assignment models.RetakeAssignment
	query := `SELECT ` + assignmentColumns + assignmentScope + ` FOR UPDATE OF r`
	if err := tx.GetContext(ctx, &assignment, query, id, academyID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func reloadAssignmentTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.RetakeAssignment, error) {
	var assignment models.RetakeAssignment
	query := `SELECT ` + assignmentColumns + ` FROM retake_assignments r WHERE r.id = $1`
	if err := tx.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("reload assignment: %w", err)
	}
	return &assignment, nil
}

func applyPatchTx(ctx context.Context, tx *sqlx.Tx, id string, patch *RetakePatch) error {
	if patch.Empty() {
		return fmt.Errorf("apply patch: empty patch for assignment %s", id)
	}

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.SetManagementStatus {
		args = append(args, patch.ManagementStatus)
		setParts = append(setParts, fmt.Sprintf("management_status = $%d", len(args)))
	}
	if patch.SetScheduledDate {
		args = append(args, patch.ScheduledDate)
		setParts = append(setParts, fmt.Sprintf("scheduled_date = $%d", len(args)))
	}
	if patch.PostponeDelta != 0 {
		args = append(args, patch.PostponeDelta)
		setParts = append(setParts, fmt.Sprintf("postpone_count = GREATEST(postpone_count + $%d, 0)", len(args)))
	}
	if patch.AbsentDelta != 0 {
		args = append(args, patch.AbsentDelta)
		setParts = append(setParts, fmt.Sprintf("absent_count = GREATEST(absent_count + $%d, 0)", len(args)))
	}
	if patch.Note != nil {
		args = append(args, *patch.Note)
		setParts = append(setParts, fmt.Sprintf("note = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE retake_assignments SET %s WHERE id = $1", strings.Join(setParts, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	return nil
}

func insertHistoryTx(ctx context.Context, tx *sqlx.Tx, entry *models.RetakeHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO retake_history
        (id, retake_assignment_id, action_type, previous_date, new_date, previous_status, new_status,
         previous_management_status, new_management_status, note, performed_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING seq`
	if err := tx.GetContext(ctx, &entry.Seq, query,
		entry.ID, entry.RetakeAssignmentID, entry.ActionType,
		entry.PreviousDate, entry.NewDate, entry.PreviousStatus, entry.NewStatus,
		entry.PreviousManagementStatus, entry.NewManagementStatus,
		entry.Note, entry.PerformedBy, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

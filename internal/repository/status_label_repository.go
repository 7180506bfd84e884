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

// ErrDuplicateLabel signals a label name already present for the academy.
var ErrDuplicateLabel = errors.New("status label name already exists for academy")

// StatusLabelRepository persists the per-academy management status catalog.
type StatusLabelRepository struct {
	db *sqlx.DB
}

// NewStatusLabelRepository constructs the repository.
func NewStatusLabelRepository(db *sqlx.DB) *StatusLabelRepository {
	return &StatusLabelRepository{db: db}
}

// List returns the academy's labels in display order.
func (r *StatusLabelRepository) List(ctx context.Context, academyID string) ([]models.StatusLabel, error) {
	const query = `SELECT id, academy_id, name, display_order, color, created_at, updated_at
        FROM status_labels WHERE academy_id = $1
        ORDER BY display_order ASC, name ASC`
	var labels []models.StatusLabel
	if err := r.db.SelectContext(ctx, &labels, query, academyID); err != nil {
		return nil, fmt.Errorf("list status labels: %w", err)
	}
	return labels, nil
}

// ListNames returns just the label names for the academy.
func (r *StatusLabelRepository) ListNames(ctx context.Context, academyID string) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names,
		`SELECT name FROM status_labels WHERE academy_id = $1 ORDER BY name ASC`, academyID); err != nil {
		return nil, fmt.Errorf("list status label names: %w", err)
	}
	return names, nil
}

// FindByID fetches one label scoped to the academy.
func (r *StatusLabelRepository) FindByID(ctx context.Context, academyID, id string) (*models.StatusLabel, error) {
	var label models.StatusLabel
	err := r.db.GetContext(ctx, &label,
		`SELECT id, academy_id, name, display_order, color, created_at, updated_at
        FROM status_labels WHERE id = $1 AND academy_id = $2`, id, academyID)
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// Create inserts a new label.
func (r *StatusLabelRepository) Create(ctx context.Context, label *models.StatusLabel) error {
	if label.ID == "" {
		label.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	label.CreatedAt = now
	label.UpdatedAt = now
	const query = `INSERT INTO status_labels (id, academy_id, name, display_order, color, created_at, updated_at)
        VALUES (:id, :academy_id, :name, :display_order, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, label); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateLabel
		}
		return fmt.Errorf("create status label: %w", err)
	}
	return nil
}

// UpdateStatusLabelParams groups mutable label columns.
type UpdateStatusLabelParams struct {
	Name         *string
	DisplayOrder *int
	Color        *string
}

// Update edits a label; nil params leave columns untouched.
func (r *StatusLabelRepository) Update(ctx context.Context, academyID, id string, params UpdateStatusLabelParams) error {
	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{id, academyID}

	if params.Name != nil {
		args = append(args, *params.Name)
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.DisplayOrder != nil {
		args = append(args, *params.DisplayOrder)
		setParts = append(setParts, fmt.Sprintf("display_order = $%d", len(args)))
	}
	if params.Color != nil {
		args = append(args, *params.Color)
		setParts = append(setParts, fmt.Sprintf("color = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE status_labels SET %s WHERE id = $1 AND academy_id = $2", strings.Join(setParts, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateLabel
		}
		return fmt.Errorf("update status label: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check label update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a label. Assignments that already carry the name keep it.
func (r *StatusLabelRepository) Delete(ctx context.Context, academyID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM status_labels WHERE id = $1 AND academy_id = $2`, id, academyID)
	if err != nil {
		return fmt.Errorf("delete status label: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check label delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

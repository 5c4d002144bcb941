package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.TaskRepository = taskStore{}

type taskStore struct{ *Store }

func (s *Store) Tasks() types.TaskRepository { return taskStore{s} }

const taskColumns = `id, branch_id, title, description, status, priority, details,
	estimated_effort, due_date, completed_at, completion_summary, testing_notes,
	context_id, progress_percentage, user_id, created_at, updated_at, version,
	assignees, labels`

func (t taskStore) FindByID(ctx context.Context, id uuid.UUID) (*types.Task, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())
	task, err := scanTask(row)
	if err != nil {
		return nil, mapError("task", id.String(), err)
	}
	return task, nil
}

func (t taskStore) FindAll(ctx context.Context, userID string, filter types.TaskFilter) ([]*types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if filter.ProjectID != nil {
		query += ` AND branch_id IN (SELECT id FROM branches WHERE project_id = ?)`
		args = append(args, filter.ProjectID.String())
	}
	if filter.BranchID != nil {
		query += ` AND branch_id = ?`
		args = append(args, filter.BranchID.String())
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at`

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("task", userID, err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, mapError("task", userID, err)
		}
		if filter.Assignee != nil && !containsUUID(task.Assignees, *filter.Assignee) {
			continue
		}
		if len(filter.Labels) > 0 && !containsAnyLabel(task.Labels, filter.Labels) {
			continue
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (t taskStore) Save(ctx context.Context, task *types.Task) error {
	return t.save(ctx, task, nil)
}

// SaveWithVersion performs the compare-and-swap write behind §5's
// CONCURRENT_MODIFICATION guarantee: the UPDATE only matches a row whose
// stored version equals expectedVersion, and a zero RowsAffected means
// someone else already wrote a newer version.
func (t taskStore) SaveWithVersion(ctx context.Context, task *types.Task, expectedVersion int) error {
	return t.save(ctx, task, &expectedVersion)
}

func (t taskStore) save(ctx context.Context, task *types.Task, expectedVersion *int) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	assignees, err := json.Marshal(task.Assignees)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal assignees", err)
	}
	labels, err := json.Marshal(task.Labels)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal labels", err)
	}

	var contextID any
	if task.ContextID != nil {
		contextID = task.ContextID.String()
	}

	if expectedVersion == nil {
		if task.Version == 0 {
			task.Version = 1
		}
		_, err := t.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO UPDATE SET branch_id=excluded.branch_id, title=excluded.title,
				description=excluded.description, status=excluded.status, priority=excluded.priority,
				details=excluded.details, estimated_effort=excluded.estimated_effort, due_date=excluded.due_date,
				completed_at=excluded.completed_at, completion_summary=excluded.completion_summary,
				testing_notes=excluded.testing_notes, context_id=excluded.context_id,
				progress_percentage=excluded.progress_percentage, updated_at=excluded.updated_at,
				version=excluded.version, assignees=excluded.assignees, labels=excluded.labels`,
			task.ID.String(), task.BranchID.String(), task.Title, task.Description, task.Status, task.Priority,
			task.Details, task.EstimatedEffort, task.DueDate, task.CompletedAt, task.CompletionSummary,
			task.TestingNotes, contextID, task.ProgressPercentage, task.UserID, task.CreatedAt, task.UpdatedAt,
			task.Version, string(assignees), string(labels))
		return mapError("task", task.Title, err)
	}

	newVersion := *expectedVersion + 1
	res, err := t.db.ExecContext(ctx, `UPDATE tasks SET branch_id=?, title=?, description=?, status=?,
		priority=?, details=?, estimated_effort=?, due_date=?, completed_at=?, completion_summary=?,
		testing_notes=?, context_id=?, progress_percentage=?, updated_at=?, version=?, assignees=?, labels=?
		WHERE id = ? AND version = ?`,
		task.BranchID.String(), task.Title, task.Description, task.Status, task.Priority, task.Details,
		task.EstimatedEffort, task.DueDate, task.CompletedAt, task.CompletionSummary, task.TestingNotes,
		contextID, task.ProgressPercentage, task.UpdatedAt, newVersion, string(assignees), string(labels),
		task.ID.String(), *expectedVersion)
	if err != nil {
		return mapError("task", task.Title, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "read rows affected", err)
	}
	if affected == 0 {
		return orcherrors.ConcurrentModificationErr("task", task.ID.String())
	}
	task.Version = newVersion
	return nil
}

func (t taskStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("task", id.String(), err)
	}
	defer tx.Rollback()
	for _, stmt := range []string{
		`DELETE FROM subtasks WHERE task_id = ?`,
		`DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_task_id = ?`,
		`DELETE FROM task_contexts WHERE task_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id.String(), id.String()); err != nil {
			return mapError("task", id.String(), err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String()); err != nil {
		return mapError("task", id.String(), err)
	}
	return tx.Commit()
}

func scanTask(row rowScanner) (*types.Task, error) {
	task := &types.Task{}
	var id, branchID string
	var contextID *string
	var assignees, labels string
	if err := row.Scan(&id, &branchID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.Details, &task.EstimatedEffort, &task.DueDate, &task.CompletedAt, &task.CompletionSummary,
		&task.TestingNotes, &contextID, &task.ProgressPercentage, &task.UserID, &task.CreatedAt, &task.UpdatedAt,
		&task.Version, &assignees, &labels); err != nil {
		return nil, err
	}
	task.ID = uuid.MustParse(id)
	task.BranchID = uuid.MustParse(branchID)
	if contextID != nil {
		u := uuid.MustParse(*contextID)
		task.ContextID = &u
	}
	_ = json.Unmarshal([]byte(assignees), &task.Assignees)
	_ = json.Unmarshal([]byte(labels), &task.Labels)
	return task, nil
}

func containsUUID(list []uuid.UUID, target uuid.UUID) bool {
	for _, u := range list {
		if u == target {
			return true
		}
	}
	return false
}

func containsAnyLabel(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

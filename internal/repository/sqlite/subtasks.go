package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.SubtaskRepository = subtaskStore{}

type subtaskStore struct{ *Store }

func (s *Store) Subtasks() types.SubtaskRepository { return subtaskStore{s} }

const subtaskColumns = `id, task_id, title, description, status, priority, assignees,
	progress_percentage, progress_notes, blockers, completion_summary, impact_on_parent,
	insights_found, user_id, created_at, updated_at`

func (s subtaskStore) FindByID(ctx context.Context, id uuid.UUID) (*types.Subtask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id.String())
	sub, err := scanSubtask(row)
	if err != nil {
		return nil, mapError("subtask", id.String(), err)
	}
	return sub, nil
}

func (s subtaskStore) FindByTask(ctx context.Context, taskID uuid.UUID) ([]*types.Subtask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY created_at`, taskID.String())
	if err != nil {
		return nil, mapError("subtask", taskID.String(), err)
	}
	defer rows.Close()

	var out []*types.Subtask
	for rows.Next() {
		sub, err := scanSubtask(rows)
		if err != nil {
			return nil, mapError("subtask", taskID.String(), err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s subtaskStore) Save(ctx context.Context, sub *types.Subtask) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	assignees, err := json.Marshal(sub.Assignees)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal assignees", err)
	}
	insights, err := json.Marshal(sub.InsightsFound)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal insights", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO subtasks (`+subtaskColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, description=excluded.description,
			status=excluded.status, priority=excluded.priority, assignees=excluded.assignees,
			progress_percentage=excluded.progress_percentage, progress_notes=excluded.progress_notes,
			blockers=excluded.blockers, completion_summary=excluded.completion_summary,
			impact_on_parent=excluded.impact_on_parent, insights_found=excluded.insights_found,
			updated_at=excluded.updated_at`,
		sub.ID.String(), sub.TaskID.String(), sub.Title, sub.Description, sub.Status, sub.Priority,
		string(assignees), sub.ProgressPercentage, sub.ProgressNotes, sub.Blockers, sub.CompletionSummary,
		sub.ImpactOnParent, string(insights), sub.UserID, sub.CreatedAt, sub.UpdatedAt)
	return mapError("subtask", sub.Title, err)
}

func (s subtaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id.String())
	return mapError("subtask", id.String(), err)
}

func scanSubtask(row rowScanner) (*types.Subtask, error) {
	sub := &types.Subtask{}
	var id, taskID, assignees, insights string
	if err := row.Scan(&id, &taskID, &sub.Title, &sub.Description, &sub.Status, &sub.Priority, &assignees,
		&sub.ProgressPercentage, &sub.ProgressNotes, &sub.Blockers, &sub.CompletionSummary,
		&sub.ImpactOnParent, &insights, &sub.UserID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.ID = uuid.MustParse(id)
	sub.TaskID = uuid.MustParse(taskID)
	_ = json.Unmarshal([]byte(assignees), &sub.Assignees)
	_ = json.Unmarshal([]byte(insights), &sub.InsightsFound)
	return sub, nil
}

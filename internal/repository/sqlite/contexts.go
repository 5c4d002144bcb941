package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.ContextRepository = contextStore{}

// contextStore persists the four context levels and delegations as JSON
// blobs keyed by their natural id: the nested map/slice shape of
// GlobalContext..TaskContext (recovered from original_source's
// domain/entities/context.py) has no clean relational mapping, and ent
// being dropped means there is no generated column mapper to lean on.
type contextStore struct{ *Store }

func (s *Store) Contexts() types.ContextRepository { return contextStore{s} }

func (c contextStore) FindGlobal(ctx context.Context, userID string) (*types.GlobalContext, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM global_contexts WHERE user_id = ?`, userID).Scan(&data)
	if err != nil {
		return nil, mapError("global_context", userID, err)
	}
	g := &types.GlobalContext{}
	if err := json.Unmarshal([]byte(data), g); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal global context", err)
	}
	return g, nil
}

func (c contextStore) SaveGlobal(ctx context.Context, g *types.GlobalContext) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	data, err := json.Marshal(g)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal global context", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO global_contexts (user_id, data) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`, g.UserID, string(data))
	return mapError("global_context", g.UserID, err)
}

func (c contextStore) FindProject(ctx context.Context, projectID uuid.UUID) (*types.ProjectContext, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM project_contexts WHERE project_id = ?`, projectID.String()).Scan(&data)
	if err != nil {
		return nil, mapError("project_context", projectID.String(), err)
	}
	p := &types.ProjectContext{}
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal project context", err)
	}
	return p, nil
}

func (c contextStore) SaveProject(ctx context.Context, p *types.ProjectContext) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal project context", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO project_contexts (project_id, data) VALUES (?, ?)
		ON CONFLICT(project_id) DO UPDATE SET data = excluded.data`, p.ProjectID.String(), string(data))
	return mapError("project_context", p.ProjectID.String(), err)
}

func (c contextStore) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM project_contexts WHERE project_id = ?`, projectID.String())
	return mapError("project_context", projectID.String(), err)
}

func (c contextStore) FindBranch(ctx context.Context, branchID uuid.UUID) (*types.BranchContext, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM branch_contexts WHERE branch_id = ?`, branchID.String()).Scan(&data)
	if err != nil {
		return nil, mapError("branch_context", branchID.String(), err)
	}
	b := &types.BranchContext{}
	if err := json.Unmarshal([]byte(data), b); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal branch context", err)
	}
	return b, nil
}

func (c contextStore) SaveBranch(ctx context.Context, b *types.BranchContext) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal branch context", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO branch_contexts (branch_id, data) VALUES (?, ?)
		ON CONFLICT(branch_id) DO UPDATE SET data = excluded.data`, b.BranchID.String(), string(data))
	return mapError("branch_context", b.BranchID.String(), err)
}

func (c contextStore) DeleteBranch(ctx context.Context, branchID uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM branch_contexts WHERE branch_id = ?`, branchID.String())
	return mapError("branch_context", branchID.String(), err)
}

func (c contextStore) FindTask(ctx context.Context, taskID uuid.UUID) (*types.TaskContext, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM task_contexts WHERE task_id = ?`, taskID.String()).Scan(&data)
	if err != nil {
		return nil, mapError("task_context", taskID.String(), err)
	}
	t := &types.TaskContext{}
	if err := json.Unmarshal([]byte(data), t); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal task context", err)
	}
	return t, nil
}

func (c contextStore) SaveTask(ctx context.Context, t *types.TaskContext) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal task context", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO task_contexts (task_id, data) VALUES (?, ?)
		ON CONFLICT(task_id) DO UPDATE SET data = excluded.data`, t.TaskID.String(), string(data))
	return mapError("task_context", t.TaskID.String(), err)
}

func (c contextStore) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM task_contexts WHERE task_id = ?`, taskID.String())
	return mapError("task_context", taskID.String(), err)
}

func (c contextStore) SaveDelegation(ctx context.Context, d *types.ContextDelegation) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal delegation", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO context_delegations (id, user_id, target_level, target_id, processed, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET processed=excluded.processed, data=excluded.data`,
		d.ID.String(), d.UserID, d.TargetLevel, d.TargetID.String(), d.Processed, string(data))
	return mapError("context_delegation", d.ID.String(), err)
}

func (c contextStore) FindDelegation(ctx context.Context, id uuid.UUID) (*types.ContextDelegation, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM context_delegations WHERE id = ?`, id.String()).Scan(&data)
	if err != nil {
		return nil, mapError("context_delegation", id.String(), err)
	}
	d := &types.ContextDelegation{}
	if err := json.Unmarshal([]byte(data), d); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal delegation", err)
	}
	return d, nil
}

func (c contextStore) PendingDelegations(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID) ([]*types.ContextDelegation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT data FROM context_delegations
		WHERE user_id = ? AND target_level = ? AND target_id = ? AND processed = 0`,
		userID, level, id.String())
	if err != nil {
		return nil, mapError("context_delegation", userID, err)
	}
	defer rows.Close()

	var out []*types.ContextDelegation
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, mapError("context_delegation", userID, err)
		}
		d := &types.ContextDelegation{}
		if err := json.Unmarshal([]byte(data), d); err != nil {
			return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal delegation", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

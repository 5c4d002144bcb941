package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

var _ types.DependencyRepository = dependencyStore{}

type dependencyStore struct{ *Store }

func (s *Store) Dependencies() types.DependencyRepository { return dependencyStore{s} }

func (d dependencyStore) Add(ctx context.Context, taskID, dependsOnTaskID uuid.UUID, userID string) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO task_dependencies (task_id, depends_on_task_id, dependency_type, user_id)
		VALUES (?, ?, ?, ?) ON CONFLICT(task_id, depends_on_task_id) DO NOTHING`,
		taskID.String(), dependsOnTaskID.String(), string(types.DependencyBlocks), userID)
	return mapError("dependency", taskID.String(), err)
}

func (d dependencyStore) Remove(ctx context.Context, taskID, dependsOnTaskID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?`,
		taskID.String(), dependsOnTaskID.String())
	return mapError("dependency", taskID.String(), err)
}

func (d dependencyStore) DependenciesOf(ctx context.Context, taskID uuid.UUID) ([]types.TaskDependency, error) {
	return d.query(ctx, `SELECT task_id, depends_on_task_id, dependency_type, user_id
		FROM task_dependencies WHERE task_id = ?`, taskID.String())
}

func (d dependencyStore) DependentsOf(ctx context.Context, taskID uuid.UUID) ([]types.TaskDependency, error) {
	return d.query(ctx, `SELECT task_id, depends_on_task_id, dependency_type, user_id
		FROM task_dependencies WHERE depends_on_task_id = ?`, taskID.String())
}

func (d dependencyStore) AllForUser(ctx context.Context, userID string) ([]types.TaskDependency, error) {
	return d.query(ctx, `SELECT task_id, depends_on_task_id, dependency_type, user_id
		FROM task_dependencies WHERE user_id = ?`, userID)
}

func (d dependencyStore) DeleteForTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_task_id = ?`,
		taskID.String(), taskID.String())
	return mapError("dependency", taskID.String(), err)
}

func (d dependencyStore) query(ctx context.Context, q string, args ...any) ([]types.TaskDependency, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError("dependency", "", err)
	}
	defer rows.Close()

	var out []types.TaskDependency
	for rows.Next() {
		var dep types.TaskDependency
		var taskID, dependsOn string
		if err := rows.Scan(&taskID, &dependsOn, &dep.DependencyType, &dep.UserID); err != nil {
			return nil, mapError("dependency", "", err)
		}
		dep.TaskID = uuid.MustParse(taskID)
		dep.DependsOnTaskID = uuid.MustParse(dependsOn)
		out = append(out, dep)
	}
	return out, rows.Err()
}

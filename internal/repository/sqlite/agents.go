package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.AgentRepository = agentStore{}

type agentStore struct{ *Store }

func (s *Store) Agents() types.AgentRepository { return agentStore{s} }

const agentColumns = `id, project_id, name, description, role, capabilities, status, availability_score, user_id`

func (a agentStore) FindByID(ctx context.Context, id uuid.UUID) (*types.Agent, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id.String())
	agent, err := scanAgent(row)
	if err != nil {
		return nil, mapError("agent", id.String(), err)
	}
	return agent, nil
}

func (a agentStore) FindAll(ctx context.Context, userID string, projectID *uuid.UUID) ([]*types.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE user_id = ?`
	args := []any{userID}
	if projectID != nil {
		query += ` AND project_id = ?`
		args = append(args, projectID.String())
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("agent", userID, err)
	}
	defer rows.Close()

	var out []*types.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, mapError("agent", userID, err)
		}
		out = append(out, agent)
	}
	return out, rows.Err()
}

func (a agentStore) Save(ctx context.Context, agent *types.Agent) error {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	capabilities, err := json.Marshal(agent.Capabilities)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal capabilities", err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT INTO agents (`+agentColumns+`) VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description,
			role=excluded.role, capabilities=excluded.capabilities, status=excluded.status,
			availability_score=excluded.availability_score`,
		agent.ID.String(), agent.ProjectID.String(), agent.Name, agent.Description, agent.Role,
		string(capabilities), agent.Status, agent.AvailabilityScore, agent.UserID)
	return mapError("agent", agent.Name, err)
}

func (a agentStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id.String())
	return mapError("agent", id.String(), err)
}

func scanAgent(row rowScanner) (*types.Agent, error) {
	agent := &types.Agent{}
	var id, projectID, capabilities string
	if err := row.Scan(&id, &projectID, &agent.Name, &agent.Description, &agent.Role,
		&capabilities, &agent.Status, &agent.AvailabilityScore, &agent.UserID); err != nil {
		return nil, err
	}
	agent.ID = uuid.MustParse(id)
	agent.ProjectID = uuid.MustParse(projectID)
	_ = json.Unmarshal([]byte(capabilities), &agent.Capabilities)
	return agent, nil
}

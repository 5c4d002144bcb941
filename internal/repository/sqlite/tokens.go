package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.TokenRepository = tokenStore{}

type tokenStore struct{ *Store }

func (s *Store) Tokens() types.TokenRepository { return tokenStore{s} }

const tokenColumns = `id, user_id, name, token_hash, scopes, rate_limit, expires_at,
	last_used_at, usage_count, is_active, metadata`

func (t tokenStore) FindByID(ctx context.Context, id uuid.UUID) (*types.APIToken, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM api_tokens WHERE id = ?`, id.String())
	tok, err := scanToken(row)
	if err != nil {
		return nil, mapError("token", id.String(), err)
	}
	return tok, nil
}

func (t tokenStore) FindByHash(ctx context.Context, hash string) (*types.APIToken, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM api_tokens WHERE token_hash = ?`, hash)
	tok, err := scanToken(row)
	if err != nil {
		return nil, mapError("token", "***", err)
	}
	return tok, nil
}

func (t tokenStore) FindAll(ctx context.Context, userID string) ([]*types.APIToken, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT `+tokenColumns+` FROM api_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, mapError("token", userID, err)
	}
	defer rows.Close()

	var out []*types.APIToken
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, mapError("token", userID, err)
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

func (t tokenStore) Save(ctx context.Context, tok *types.APIToken) error {
	if tok.ID == uuid.Nil {
		tok.ID = uuid.New()
	}
	scopes, err := json.Marshal(tok.Scopes)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal scopes", err)
	}
	metadata, err := json.Marshal(tok.Metadata)
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "marshal metadata", err)
	}
	_, err = t.db.ExecContext(ctx, `INSERT INTO api_tokens (`+tokenColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, scopes=excluded.scopes,
			rate_limit=excluded.rate_limit, expires_at=excluded.expires_at,
			last_used_at=excluded.last_used_at, usage_count=excluded.usage_count,
			is_active=excluded.is_active, metadata=excluded.metadata`,
		tok.ID.String(), tok.UserID, tok.Name, tok.TokenHash, string(scopes), tok.RateLimit,
		tok.ExpiresAt, tok.LastUsedAt, tok.UsageCount, tok.IsActive, string(metadata))
	return mapError("token", tok.Name, err)
}

func (t tokenStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = ?`, id.String())
	return mapError("token", id.String(), err)
}

func (t tokenStore) RecordUsage(ctx context.Context, id uuid.UUID) error {
	_, err := t.db.ExecContext(ctx, `UPDATE api_tokens SET usage_count = usage_count + 1,
		last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, id.String())
	return mapError("token", id.String(), err)
}

func scanToken(row rowScanner) (*types.APIToken, error) {
	tok := &types.APIToken{}
	var id, scopes, metadata string
	if err := row.Scan(&id, &tok.UserID, &tok.Name, &tok.TokenHash, &scopes, &tok.RateLimit,
		&tok.ExpiresAt, &tok.LastUsedAt, &tok.UsageCount, &tok.IsActive, &metadata); err != nil {
		return nil, err
	}
	tok.ID = uuid.MustParse(id)
	_ = json.Unmarshal([]byte(scopes), &tok.Scopes)
	_ = json.Unmarshal([]byte(metadata), &tok.Metadata)
	return tok, nil
}

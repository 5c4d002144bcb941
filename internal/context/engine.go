package context

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// chainEntry is one level's contribution to a resolution walk, ordered
// from global (most general) to the requested level (most specific).
type chainEntry struct {
	Level    types.ContextLevel
	ID       uuid.UUID
	Data     map[string]any
	Disabled bool
	Version  int
}

// Engine resolves, creates, updates and deletes context documents across
// the four-tier hierarchy, and processes delegations between tiers. It is
// grounded on original_source's ContextService chain-walk (get_context ->
// _inherit_from_parent) translated onto the flatter Go types.*Context
// shapes, constructed the same repository-backed-service way the rest
// of this codebase builds its engines.
type Engine struct {
	contexts types.ContextRepository
	projects types.ProjectRepository
	branches types.BranchRepository
	tasks    types.TaskRepository
	cache    types.CacheRepository
}

func New(contexts types.ContextRepository, projects types.ProjectRepository, branches types.BranchRepository, tasks types.TaskRepository, cache types.CacheRepository) *Engine {
	return &Engine{contexts: contexts, projects: projects, branches: branches, tasks: tasks, cache: cache}
}

// Resolve returns the merged context document for (level, id), consulting
// the cache first and collapsing concurrent misses via single-flight.
func (e *Engine) Resolve(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID) (*types.ResolvedContext, error) {
	if cached, ok := e.cache.Get(ctx, userID, level, id); ok {
		rc := cached.ResolvedContext
		return &rc, nil
	}

	key := cacheKey(userID, level, id)
	sf, ok := e.cache.(interface {
		SingleFlight(string, func() (any, error)) (any, error)
	})
	resolveFn := func() (any, error) { return e.resolve(ctx, userID, level, id) }

	var v any
	var err error
	if ok {
		v, err = sf.SingleFlight(key, resolveFn)
	} else {
		v, err = resolveFn()
	}
	if err != nil {
		return nil, err
	}
	return v.(*types.ResolvedContext), nil
}

func (e *Engine) resolve(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID) (*types.ResolvedContext, error) {
	chain, err := e.fetchChain(ctx, userID, level, id)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	var chainLevels []types.ContextLevel
	parentChain := make([]uuid.UUID, 0, len(chain)-1)
	for i, entry := range chain {
		merged = mergeDocs(merged, entry.Data)
		chainLevels = append(chainLevels, entry.Level)
		if i < len(chain)-1 {
			parentChain = append(parentChain, entry.ID)
		}
	}

	own := chain[len(chain)-1]
	rc := &types.ResolvedContext{
		Level:            level,
		ID:                id,
		Data:              merged,
		OwnData:           own.Data,
		InheritanceChain:  chainLevels,
		InheritanceDepth:  len(chain),
		DependenciesHash:  dependenciesHash(chain),
		Version:           own.Version,
	}

	entry := &types.ContextInheritanceCache{
		ContextID:        id,
		ContextLevel:     level,
		ResolvedContext:  *rc,
		DependenciesHash: rc.DependenciesHash,
		ParentChain:      parentChain,
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(DefaultTTL),
		UserID:           userID,
	}
	_ = e.cache.Put(ctx, entry)

	if size, sizeErr := e.cache.Size(ctx); sizeErr == nil && size > PressureThreshold {
		_, _ = e.cache.EvictLowValue(ctx, PressureThreshold)
	}

	return rc, nil
}

// fetchChain walks from the requested level up to global, collecting each
// ancestor's own data, then truncates at the first inheritance_disabled
// level encountered walking back down from the target (§4.5: "the disabled
// level and below still contribute; above are excluded").
func (e *Engine) fetchChain(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID) ([]chainEntry, error) {
	var full []chainEntry

	switch level {
	case types.LevelGlobal:
		g, err := e.findOrCreateGlobal(ctx, userID)
		if err != nil {
			return nil, err
		}
		full = []chainEntry{globalEntry(g)}

	case types.LevelProject:
		p, err := e.contexts.FindProject(ctx, id)
		if err != nil {
			return nil, orcherrors.NotFoundErr("project_context", id.String())
		}
		g, err := e.findOrCreateGlobal(ctx, userID)
		if err != nil {
			return nil, err
		}
		full = []chainEntry{globalEntry(g), projectEntry(p)}

	case types.LevelBranch:
		b, err := e.contexts.FindBranch(ctx, id)
		if err != nil {
			return nil, orcherrors.NotFoundErr("branch_context", id.String())
		}
		ancestors, err := e.fetchChain(ctx, userID, types.LevelProject, b.ParentProjectID)
		if err != nil {
			return nil, err
		}
		full = append(ancestors, branchEntry(b))

	case types.LevelTask:
		t, err := e.contexts.FindTask(ctx, id)
		if err != nil {
			return nil, orcherrors.NotFoundErr("task_context", id.String())
		}
		if t.ForceLocalOnly {
			return []chainEntry{taskEntry(t)}, nil
		}
		ancestors, err := e.fetchChain(ctx, userID, types.LevelBranch, t.ParentBranchID)
		if err != nil {
			return nil, err
		}
		full = append(ancestors, taskEntry(t))

	default:
		return nil, orcherrors.ValidationErr(fmt.Sprintf("unknown context level %q", level))
	}

	return truncateAtDisabled(full), nil
}

// truncateAtDisabled scans from the most specific level back toward
// global; the first disabled entry found becomes the new chain start.
func truncateAtDisabled(chain []chainEntry) []chainEntry {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Disabled {
			return chain[i:]
		}
	}
	return chain
}

func (e *Engine) findOrCreateGlobal(ctx context.Context, userID string) (*types.GlobalContext, error) {
	g, err := e.contexts.FindGlobal(ctx, userID)
	if err == nil && g != nil {
		return g, nil
	}
	g = &types.GlobalContext{
		ID:     uuid.New(),
		UserID: userID,
		Data:   map[string]any{},
	}
	if err := e.contexts.SaveGlobal(ctx, g); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "auto-materialize global context", err)
	}
	return g, nil
}

func globalEntry(g *types.GlobalContext) chainEntry {
	return chainEntry{Level: types.LevelGlobal, ID: g.ID, Data: nonNil(g.Data), Version: g.Version}
}

func projectEntry(p *types.ProjectContext) chainEntry {
	return chainEntry{Level: types.LevelProject, ID: p.ProjectID, Data: nonNil(p.Data), Disabled: p.InheritanceDisabled, Version: p.Version}
}

func branchEntry(b *types.BranchContext) chainEntry {
	return chainEntry{Level: types.LevelBranch, ID: b.BranchID, Data: nonNil(b.Data), Disabled: b.InheritanceDisabled, Version: b.Version}
}

func taskEntry(t *types.TaskContext) chainEntry {
	return chainEntry{Level: types.LevelTask, ID: t.TaskID, Data: nonNil(t.Data), Disabled: t.InheritanceDisabled, Version: t.Version}
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

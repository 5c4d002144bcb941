// Package app wires every Conductor component into a single process and
// exposes the orchestration facade through a small urfave/cli surface:
// process bootstrap (main.go) stays a two-line shim, all dependency
// wiring and the per-entity CLI commands live here.
package app

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	ctxengine "github.com/denkhaus/conductor/internal/context"

	"github.com/denkhaus/conductor/internal/auth"
	"github.com/denkhaus/conductor/internal/bus"
	"github.com/denkhaus/conductor/internal/config"
	"github.com/denkhaus/conductor/internal/eventstore"
	"github.com/denkhaus/conductor/internal/hints"
	"github.com/denkhaus/conductor/internal/logger"
	"github.com/denkhaus/conductor/internal/orchestration"
	"github.com/denkhaus/conductor/internal/repository/sqlite"
	"github.com/denkhaus/conductor/internal/statemachine"
)

// App wraps the wired facade and the underlying *cli.App, closing the
// sqlite store and event bus on shutdown.
type App struct {
	*cli.App
	store *sqlite.Store
	bus   *bus.Bus
}

// New builds every component described by SPEC_FULL.md §4.9 and wires
// them into an orchestration.Facade: sqlite-backed repositories, the auth
// validator and rate limiter, the context engine and its cache, the hint
// engine, and the embedded event bus sitting in front of the durable
// event store.
func New(version, commit, date string) (*App, error) {
	appLogger := logger.GetLogger()
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := sqlite.Open(sqlite.WithLogger(appLogger), sqlite.WithAutoMigrate(true))
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	b, err := bus.New()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("start event bus: %w", err)
	}

	events := eventstore.New(store.Events(), b)

	limiter := auth.NewRateLimiter(auth.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		BurstSize:         cfg.RateLimitBurst,
		RequestsPerHour:   cfg.RateLimitPerHour,
	})
	validator := auth.NewValidator(store.Tokens(), limiter, cfg.TokenCacheTTL)

	cache := ctxengine.NewCache(cfg.ContextCacheTTL)
	contextEngine := ctxengine.New(store.Contexts(), store.Projects(), store.Branches(), store.Tasks(), cache)

	hintsEngine := hints.New(events)
	machine := statemachine.New()

	facade := orchestration.New(orchestration.Dependencies{
		Projects:         store.Projects(),
		Branches:         store.Branches(),
		Tasks:            store.Tasks(),
		Subtasks:         store.Subtasks(),
		TaskDependencies: store.Dependencies(),
		Agents:           store.Agents(),
		Tokens:           store.Tokens(),
		Contexts:         store.Contexts(),
		Events:           events,
		Validator:        validator,
		Machine:          machine,
		ContextEngine:    contextEngine,
		Hints:            hintsEngine,
	})

	cliApp := &cli.App{
		Name:    "conductor",
		Usage:   "Multi-tenant task orchestration facade",
		Version: version,
		Flags: []cli.Flag{
			NewUserFlag(),
			NewJSONFlag(),
			NewLogLevelFlag(),
		},
		Before: func(c *cli.Context) error {
			logger.SetLogLevel(c.String("log-level"))
			logger.GetLogger().Info("conductor started",
				zap.String("version", version), zap.String("commit", commit), zap.String("date", date))
			return nil
		},
		Commands: invokeCommands(facade),
		// Errors are returned from Run; main turns them into the exit status.
		ExitErrHandler: func(c *cli.Context, err error) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(c.App.ErrWriter, msg)
			}
		},
	}

	return &App{App: cliApp, store: store, bus: b}, nil
}

// Close releases the event bus and sqlite store. Safe to call once after
// Run returns.
func (a *App) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// manageFunc is the shared shape of the facade's six Manage* methods.
type manageFunc func(ctx *cli.Context, facade *orchestration.Facade, action string, params map[string]any) *orchestration.Response

var entities = map[string]manageFunc{
	"task":    callTask,
	"subtask": callSubtask,
	"project": callProject,
	"context": callContext,
	"agent":   callAgent,
	"token":   callToken,
}

func callTask(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageTask(c.Context, c.String("user"), action, params)
}
func callSubtask(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageSubtask(c.Context, c.String("user"), action, params)
}
func callProject(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageProject(c.Context, c.String("user"), action, params)
}
func callContext(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageContext(c.Context, c.String("user"), action, params)
}
func callAgent(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageAgent(c.Context, c.String("user"), action, params)
}
func callToken(c *cli.Context, f *orchestration.Facade, action string, params map[string]any) *orchestration.Response {
	return f.ManageToken(c.Context, c.String("user"), action, params)
}

// invokeCommands builds one CLI subcommand per entity ("task",
// "subtask", ...), each taking an action name and a JSON params object as
// positional arguments, dispatching onto the facade and printing the
// spec.md §6 response envelope.
func invokeCommands(facade *orchestration.Facade) []*cli.Command {
	cmds := make([]*cli.Command, 0, len(entities))
	for name, fn := range entities {
		name, fn := name, fn
		cmds = append(cmds, &cli.Command{
			Name:      name,
			Usage:     fmt.Sprintf("Invoke manage_%s actions", name),
			ArgsUsage: "<action> [params-json]",
			Action: func(c *cli.Context) error {
				action := c.Args().Get(0)
				if action == "" {
					return cli.Exit("an action is required", 1)
				}
				params, err := parseParams(c.Args().Get(1))
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				resp := fn(c, facade, action, params)
				return printResponse(c, resp)
			},
		})
	}
	return cmds
}

func parseParams(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("params must be a json object: %w", err)
	}
	return params, nil
}

func printResponse(c *cli.Context, resp *orchestration.Response) error {
	var (
		out []byte
		err error
	)
	if c.Bool("pretty") {
		out, err = json.MarshalIndent(resp, "", "  ")
	} else {
		out, err = json.Marshal(resp)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	if !resp.Success {
		return cli.Exit("", 1)
	}
	return nil
}

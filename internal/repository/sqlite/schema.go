package sqlite

// schema holds the DDL for every table this package owns. Relational
// columns back the fields the selector and tenancy filter on; everything
// else (nested maps, pattern/decision lists, cache provenance) is stored
// as a single JSON column, the same "no ORM, own the mapping" tradeoff
// the dropped ent schema would have hidden from us.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	user_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, name)
);

CREATE TABLE IF NOT EXISTS branches (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	assigned_agent_id TEXT,
	status TEXT NOT NULL,
	task_count INTEGER NOT NULL DEFAULT 0,
	completed_task_count INTEGER NOT NULL DEFAULT 0,
	user_id TEXT NOT NULL,
	UNIQUE(user_id, project_id, name)
);
CREATE INDEX IF NOT EXISTS idx_branches_project ON branches(project_id);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	branch_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	details TEXT,
	estimated_effort TEXT,
	due_date TIMESTAMP,
	completed_at TIMESTAMP,
	completion_summary TEXT,
	testing_notes TEXT,
	context_id TEXT,
	progress_percentage REAL NOT NULL DEFAULT 0,
	user_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	assignees TEXT NOT NULL DEFAULT '[]',
	labels TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_tasks_branch ON tasks(branch_id);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS subtasks (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	assignees TEXT NOT NULL DEFAULT '[]',
	progress_percentage REAL NOT NULL DEFAULT 0,
	progress_notes TEXT,
	blockers TEXT,
	completion_summary TEXT,
	impact_on_parent TEXT,
	insights_found TEXT NOT NULL DEFAULT '[]',
	user_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id);

CREATE TABLE IF NOT EXISTS task_dependencies (
	task_id TEXT NOT NULL,
	depends_on_task_id TEXT NOT NULL,
	dependency_type TEXT NOT NULL,
	user_id TEXT NOT NULL,
	PRIMARY KEY(task_id, depends_on_task_id)
);
CREATE INDEX IF NOT EXISTS idx_deps_depends_on ON task_dependencies(depends_on_task_id);

CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	role TEXT,
	capabilities TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	availability_score REAL NOT NULL DEFAULT 0,
	user_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_project ON agents(project_id);

CREATE TABLE IF NOT EXISTS api_tokens (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	token_hash TEXT NOT NULL UNIQUE,
	scopes TEXT NOT NULL DEFAULT '[]',
	rate_limit INTEGER NOT NULL DEFAULT 0,
	expires_at TIMESTAMP,
	last_used_at TIMESTAMP,
	usage_count INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS global_contexts (
	user_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_contexts (
	project_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS branch_contexts (
	branch_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS task_contexts (
	task_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS context_delegations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	target_level TEXT NOT NULL,
	target_id TEXT NOT NULL,
	processed BOOLEAN NOT NULL DEFAULT 0,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_delegations_user ON context_delegations(user_id);

CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	aggregate_id TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	event_type TEXT NOT NULL,
	timestamp_utc TIMESTAMP NOT NULL,
	version INTEGER NOT NULL,
	is_snapshot BOOLEAN NOT NULL DEFAULT 0,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events(aggregate_id, version);
`

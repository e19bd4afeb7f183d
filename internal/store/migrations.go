package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed')),
	due_at      DATETIME,
	category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE TABLE IF NOT EXISTS attachments (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	filename   TEXT NOT NULL,
	url        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS task_relationships (
	id              TEXT PRIMARY KEY,
	task_id         TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	related_task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	rel_type        TEXT NOT NULL DEFAULT 'generic' CHECK(rel_type IN ('generic', 'dependency')),
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notification_logs (
	id          TEXT PRIMARY KEY,
	task_id     TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	kind        TEXT NOT NULL,
	destination TEXT NOT NULL,
	payload     TEXT NOT NULL,
	sent_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_templates (
	id       TEXT PRIMARY KEY,
	key      TEXT NOT NULL UNIQUE,
	markdown TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_settings (
	id                     TEXT PRIMARY KEY,
	timezone               TEXT NOT NULL DEFAULT 'UTC',
	theme                  TEXT NOT NULL DEFAULT 'light',
	notifications_enabled  INTEGER NOT NULL DEFAULT 1,
	near_due_hours         INTEGER NOT NULL DEFAULT 24,
	scheduler_interval_sec INTEGER NOT NULL DEFAULT 60,
	destinations           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_at ON tasks(due_at);
CREATE INDEX IF NOT EXISTS idx_tasks_category_id ON tasks(category_id);
CREATE INDEX IF NOT EXISTS idx_attachments_task_id ON attachments(task_id);
CREATE INDEX IF NOT EXISTS idx_relationships_task_id ON task_relationships(task_id);
CREATE INDEX IF NOT EXISTS idx_notification_logs_task_id ON notification_logs(task_id);
CREATE INDEX IF NOT EXISTS idx_notification_logs_kind_sent ON notification_logs(kind, sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

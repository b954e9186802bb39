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

CREATE TABLE IF NOT EXISTS notifications (
	id           INTEGER PRIMARY KEY,
	position     INTEGER NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'info',
	priority     TEXT NOT NULL DEFAULT 'normal',
	target       TEXT NOT NULL DEFAULT 'all',
	target_users TEXT NOT NULL DEFAULT '',
	sent_count   INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'sent',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS activity (
	id              TEXT PRIMARY KEY,
	action          TEXT NOT NULL,
	notification_id INTEGER NOT NULL DEFAULT 0,
	detail          TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

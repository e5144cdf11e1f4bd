package cache

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);
			CREATE TABLE IF NOT EXISTS notifications (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				type TEXT NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				priority TEXT NOT NULL,
				is_read INTEGER NOT NULL DEFAULT 0,
				timestamp DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_notifications_timestamp
				ON notifications(timestamp DESC);
			CREATE TABLE IF NOT EXISTS gamification_summary (
				user_id TEXT PRIMARY KEY,
				points INTEGER NOT NULL DEFAULT 0,
				level INTEGER NOT NULL DEFAULT 0,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				achievements TEXT NOT NULL DEFAULT '[]',
				badges TEXT NOT NULL DEFAULT '[]',
				updated_at DATETIME NOT NULL
			);
			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}

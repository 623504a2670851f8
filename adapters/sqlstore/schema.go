package sqlstore

// Five durable tables. The composite primary keys on achievement_unlocks and
// daily_challenge_progress are load-bearing: at-most-once unlocks and the
// single-statement insert-or-accumulate upsert both rely on them.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	language_code TEXT NOT NULL DEFAULT '',
	is_premium INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	last_seen TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS game_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users (user_id),
	score INTEGER NOT NULL,
	level INTEGER NOT NULL,
	difficulty TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	enemies_killed INTEGER NOT NULL,
	accuracy_percent REAL NOT NULL,
	played_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results (user_id, played_at);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id INTEGER PRIMARY KEY REFERENCES users (user_id),
	best_score INTEGER NOT NULL DEFAULT 0,
	max_level INTEGER NOT NULL DEFAULT 0,
	games_played INTEGER NOT NULL DEFAULT 0,
	total_score INTEGER NOT NULL DEFAULT 0,
	total_playtime INTEGER NOT NULL DEFAULT 0,
	total_enemies_killed INTEGER NOT NULL DEFAULT 0,
	avg_accuracy REAL NOT NULL DEFAULT 0,
	easy_games INTEGER NOT NULL DEFAULT 0,
	normal_games INTEGER NOT NULL DEFAULT 0,
	hard_games INTEGER NOT NULL DEFAULT 0,
	nightmare_games INTEGER NOT NULL DEFAULT 0,
	current_win_streak INTEGER NOT NULL DEFAULT 0,
	best_win_streak INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_stats_board ON user_stats (best_score DESC, games_played ASC);

CREATE TABLE IF NOT EXISTS achievement_unlocks (
	user_id INTEGER NOT NULL REFERENCES users (user_id),
	achievement_key TEXT NOT NULL,
	unlocked_at TEXT NOT NULL,
	PRIMARY KEY (user_id, achievement_key)
);

CREATE TABLE IF NOT EXISTS daily_challenge_progress (
	user_id INTEGER NOT NULL REFERENCES users (user_id),
	challenge_type TEXT NOT NULL,
	day TEXT NOT NULL,
	target_value INTEGER NOT NULL,
	current_value INTEGER NOT NULL DEFAULT 0,
	completed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, challenge_type, day)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	user_id BIGINT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	language_code TEXT NOT NULL DEFAULT '',
	is_premium BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL,
	last_seen TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS game_results (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users (user_id),
	score BIGINT NOT NULL,
	level INTEGER NOT NULL,
	difficulty TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	enemies_killed INTEGER NOT NULL,
	accuracy_percent DOUBLE PRECISION NOT NULL,
	played_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results (user_id, played_at);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id BIGINT PRIMARY KEY REFERENCES users (user_id),
	best_score BIGINT NOT NULL DEFAULT 0,
	max_level INTEGER NOT NULL DEFAULT 0,
	games_played BIGINT NOT NULL DEFAULT 0,
	total_score BIGINT NOT NULL DEFAULT 0,
	total_playtime BIGINT NOT NULL DEFAULT 0,
	total_enemies_killed BIGINT NOT NULL DEFAULT 0,
	avg_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
	easy_games BIGINT NOT NULL DEFAULT 0,
	normal_games BIGINT NOT NULL DEFAULT 0,
	hard_games BIGINT NOT NULL DEFAULT 0,
	nightmare_games BIGINT NOT NULL DEFAULT 0,
	current_win_streak INTEGER NOT NULL DEFAULT 0,
	best_win_streak INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_stats_board ON user_stats (best_score DESC, games_played ASC);

CREATE TABLE IF NOT EXISTS achievement_unlocks (
	user_id BIGINT NOT NULL REFERENCES users (user_id),
	achievement_key TEXT NOT NULL,
	unlocked_at TEXT NOT NULL,
	PRIMARY KEY (user_id, achievement_key)
);

CREATE TABLE IF NOT EXISTS daily_challenge_progress (
	user_id BIGINT NOT NULL REFERENCES users (user_id),
	challenge_type TEXT NOT NULL,
	day TEXT NOT NULL,
	target_value BIGINT NOT NULL,
	current_value BIGINT NOT NULL DEFAULT 0,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (user_id, challenge_type, day)
);
`

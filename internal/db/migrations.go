package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS bets (
    bet_id TEXT PRIMARY KEY,
    event_time TEXT NOT NULL,
    event_teams TEXT NOT NULL,
    sport_league TEXT NOT NULL,
    bet_type TEXT NOT NULL,
    description TEXT NOT NULL,
    sportsbook TEXT NOT NULL,
    current_ev REAL NOT NULL,
    current_odds INTEGER NOT NULL,
    bet_size REAL,
    win_probability REAL,
    first_seen_at TEXT NOT NULL,
    last_observed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bets_event_time ON bets(event_time);

CREATE TABLE IF NOT EXISTS bet_observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    bet_id TEXT NOT NULL REFERENCES bets(bet_id),
    observed_at TEXT NOT NULL,
    ev_percent REAL NOT NULL,
    odds INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_bet_time ON bet_observations(bet_id, observed_at);

CREATE TABLE IF NOT EXISTS grades (
    id TEXT PRIMARY KEY,
    bet_id TEXT NOT NULL REFERENCES bets(bet_id),
    evaluated_at TEXT NOT NULL,
    ev_score REAL NOT NULL,
    timing_score REAL NOT NULL,
    trend_score REAL NOT NULL,
    confidence REAL NOT NULL,
    composite REAL NOT NULL,
    letter TEXT NOT NULL,
    method TEXT NOT NULL,
    diagnostics TEXT
);
CREATE INDEX IF NOT EXISTS idx_grades_bet_time ON grades(bet_id, evaluated_at);
CREATE INDEX IF NOT EXISTS idx_grades_letter ON grades(letter);

CREATE TABLE IF NOT EXISTS outcomes (
    id TEXT PRIMARY KEY,
    bet_id TEXT NOT NULL REFERENCES bets(bet_id),
    evaluated_at TEXT NOT NULL,
    result TEXT NOT NULL,
    matched_value REAL,
    reason TEXT NOT NULL,
    stake TEXT,
    profit_loss TEXT,
    closing_odds INTEGER,
    clv_percent TEXT
);
CREATE INDEX IF NOT EXISTS idx_outcomes_bet_time ON outcomes(bet_id, evaluated_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_result ON outcomes(result);

CREATE TABLE IF NOT EXISTS game_stats (
    game_id TEXT PRIMARY KEY,
    game_date TEXT NOT NULL,
    home_team TEXT NOT NULL,
    away_team TEXT NOT NULL,
    home_score INTEGER NOT NULL,
    away_score INTEGER NOT NULL,
    loaded_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_game_stats_date ON game_stats(game_date);

CREATE TABLE IF NOT EXISTS player_stats (
    game_id TEXT NOT NULL REFERENCES game_stats(game_id),
    player TEXT NOT NULL,
    team TEXT,
    points REAL,
    rebounds REAL,
    assists REAL,
    steals REAL,
    blocks REAL,
    turnovers REAL,
    made_threes REAL,
    PRIMARY KEY (game_id, player)
);
`

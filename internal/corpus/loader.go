package corpus

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Loader ingests boxscore drop files into the database and materializes
// snapshots for the resolver.
type Loader struct {
	db  *sql.DB
	dir string
}

func NewLoader(db *sql.DB, dir string) *Loader {
	return &Loader{db: db, dir: dir}
}

// boxScoreFile is one completed game as the stats collaborator drops it.
type boxScoreFile struct {
	Game
	Players []PlayerLine `json:"players"`
}

// LoadPending ingests every *.json drop file, upserts its rows, and moves the
// file into processed/. Files that fail to parse are skipped with a warning.
// It returns the games and stat lines that were loaded this pass.
func (l *Loader) LoadPending() ([]Game, []PlayerLine, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading corpus drop dir: %w", err)
	}

	var games []Game
	var lines []PlayerLine
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		game, ls, err := l.loadFile(path)
		if err != nil {
			slog.Warn("skipping boxscore file", "file", e.Name(), "error", err)
			continue
		}
		games = append(games, game)
		lines = append(lines, ls...)
		if err := l.archive(e.Name()); err != nil {
			return games, lines, err
		}
	}
	return games, lines, nil
}

func (l *Loader) loadFile(path string) (Game, []PlayerLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Game{}, nil, err
	}

	var f boxScoreFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Game{}, nil, fmt.Errorf("parsing boxscore: %w", err)
	}
	if f.Date == "" || f.Home == "" || f.Away == "" {
		return Game{}, nil, fmt.Errorf("boxscore missing date or teams")
	}
	if f.ID == "" {
		f.ID = fmt.Sprintf("%s:%s:%s", f.Date, f.Home, f.Away)
	}
	for i := range f.Players {
		f.Players[i].GameID = f.ID
	}

	tx, err := l.db.Begin()
	if err != nil {
		return Game{}, nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO game_stats (game_id, game_date, home_team, away_team, home_score, away_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			home_score = excluded.home_score,
			away_score = excluded.away_score,
			loaded_at = datetime('now')`,
		f.ID, f.Date, f.Home, f.Away, f.HomeScore, f.AwayScore,
	)
	if err != nil {
		return Game{}, nil, fmt.Errorf("upserting game %s: %w", f.ID, err)
	}

	for _, p := range f.Players {
		if p.Player == "" {
			continue
		}
		_, err = tx.Exec(`
			INSERT INTO player_stats (game_id, player, team, points, rebounds, assists, steals, blocks, turnovers, made_threes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(game_id, player) DO UPDATE SET
				team = excluded.team,
				points = excluded.points,
				rebounds = excluded.rebounds,
				assists = excluded.assists,
				steals = excluded.steals,
				blocks = excluded.blocks,
				turnovers = excluded.turnovers,
				made_threes = excluded.made_threes`,
			p.GameID, p.Player, p.Team, p.Points, p.Rebounds, p.Assists,
			p.Steals, p.Blocks, p.Turnovers, p.MadeThrees,
		)
		if err != nil {
			return Game{}, nil, fmt.Errorf("upserting line for %s: %w", p.Player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Game{}, nil, err
	}
	return f.Game, f.Players, nil
}

func (l *Loader) archive(name string) error {
	dest := filepath.Join(l.dir, "processed")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	if err := os.Rename(filepath.Join(l.dir, name), filepath.Join(dest, name)); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}

// Snapshot materializes the whole corpus from the database.
func (l *Loader) Snapshot() (*Snapshot, error) {
	rows, err := l.db.Query(`SELECT game_id, game_date, home_team, away_team, home_score, away_score FROM game_stats`)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Date, &g.Home, &g.Away, &g.HomeScore, &g.AwayScore); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats, err := l.db.Query(`SELECT game_id, player, team, points, rebounds, assists, steals, blocks, turnovers, made_threes FROM player_stats`)
	if err != nil {
		return nil, fmt.Errorf("loading player lines: %w", err)
	}
	defer stats.Close()

	var lines []PlayerLine
	for stats.Next() {
		var p PlayerLine
		var team sql.NullString
		var pts, reb, ast, stl, blk, tov, threes sql.NullFloat64
		if err := stats.Scan(&p.GameID, &p.Player, &team, &pts, &reb, &ast, &stl, &blk, &tov, &threes); err != nil {
			return nil, err
		}
		p.Team = team.String
		p.Points = nullableFloat(pts)
		p.Rebounds = nullableFloat(reb)
		p.Assists = nullableFloat(ast)
		p.Steals = nullableFloat(stl)
		p.Blocks = nullableFloat(blk)
		p.Turnovers = nullableFloat(tov)
		p.MadeThrees = nullableFloat(threes)
		lines = append(lines, p)
	}
	if err := stats.Err(); err != nil {
		return nil, err
	}

	return NewSnapshot(games, lines), nil
}

func nullableFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

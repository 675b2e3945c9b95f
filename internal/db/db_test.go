package db

import "testing"

func TestMigrate_Idempotent(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var version int
	if err := conn.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestMigrate_CreatesBetTables(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer conn.Close()
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO bets (bet_id, event_time, event_teams, sport_league, bet_type, description,
			sportsbook, current_ev, current_odds, first_seen_at, last_observed_at)
		VALUES ('abc', '2025-02-05 19:30', 'Memphis Grizzlies vs Denver Nuggets', 'NBA',
			'Player Rebounds', 'Brandon Clarke Under 6.5', 'DraftKings', 4.5, 150,
			'2025-02-05 13:00:00', '2025-02-05 13:00:00')`)
	if err != nil {
		t.Fatalf("inserting bet: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO bet_observations (bet_id, observed_at, ev_percent, odds)
		VALUES ('abc', '2025-02-05 13:00:00', 4.5, 150)`)
	if err != nil {
		t.Fatalf("inserting observation: %v", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM bet_observations WHERE bet_id = 'abc'`).Scan(&count); err != nil {
		t.Fatalf("counting observations: %v", err)
	}
	if count != 1 {
		t.Errorf("observations = %d, want 1", count)
	}
}

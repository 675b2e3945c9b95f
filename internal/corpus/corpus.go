// Package corpus holds the authoritative final statistics bets settle
// against: final scores per game and one stat line per player per game.
package corpus

import "sort"

// Game is one completed event. Team names are stored the way the stats
// source writes them; matching against feed names is the resolver's job.
type Game struct {
	ID        string `json:"game_id"`
	Date      string `json:"date"`
	Home      string `json:"home_team"`
	Away      string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// PlayerLine is one player's box score for one game. A nil category was not
// recorded; a played-but-scoreless stat is 0, never nil.
type PlayerLine struct {
	GameID     string   `json:"game_id,omitempty"`
	Player     string   `json:"player"`
	Team       string   `json:"team,omitempty"`
	Points     *float64 `json:"points,omitempty"`
	Rebounds   *float64 `json:"rebounds,omitempty"`
	Assists    *float64 `json:"assists,omitempty"`
	Steals     *float64 `json:"steals,omitempty"`
	Blocks     *float64 `json:"blocks,omitempty"`
	Turnovers  *float64 `json:"turnovers,omitempty"`
	MadeThrees *float64 `json:"made_threes,omitempty"`
}

// Snapshot is an immutable indexed view of the corpus. It is built once per
// resolve cycle and shared by however many resolvers run concurrently.
type Snapshot struct {
	gamesByDate map[string][]Game
	linesByGame map[string]map[string]PlayerLine
	namesByGame map[string][]string
	games       int
	lines       int
}

// NewSnapshot indexes games by date and stat lines by game and player.
// Later duplicates of the same (game, player) overwrite earlier ones.
func NewSnapshot(games []Game, lines []PlayerLine) *Snapshot {
	s := &Snapshot{
		gamesByDate: make(map[string][]Game),
		linesByGame: make(map[string]map[string]PlayerLine),
		namesByGame: make(map[string][]string),
	}

	for _, g := range games {
		s.gamesByDate[g.Date] = append(s.gamesByDate[g.Date], g)
		s.games++
	}
	for _, day := range s.gamesByDate {
		sort.Slice(day, func(i, j int) bool { return day[i].ID < day[j].ID })
	}

	for _, l := range lines {
		byName := s.linesByGame[l.GameID]
		if byName == nil {
			byName = make(map[string]PlayerLine)
			s.linesByGame[l.GameID] = byName
		}
		if _, dup := byName[l.Player]; !dup {
			s.namesByGame[l.GameID] = append(s.namesByGame[l.GameID], l.Player)
			s.lines++
		}
		byName[l.Player] = l
	}
	for _, names := range s.namesByGame {
		sort.Strings(names)
	}
	return s
}

// GamesOn returns the games played on a date ("2006-01-02"), sorted by id.
func (s *Snapshot) GamesOn(date string) []Game {
	return s.gamesByDate[date]
}

// PlayerNames returns the players with a stat line in a game, sorted.
func (s *Snapshot) PlayerNames(gameID string) []string {
	return s.namesByGame[gameID]
}

// PlayerLine returns one player's line, matching the stored name exactly.
func (s *Snapshot) PlayerLine(gameID, player string) (PlayerLine, bool) {
	l, ok := s.linesByGame[gameID][player]
	return l, ok
}

func (s *Snapshot) Games() int { return s.games }

func (s *Snapshot) Lines() int { return s.lines }

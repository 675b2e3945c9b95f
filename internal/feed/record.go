// Package feed turns raw scraped odds-screen rows into typed opportunity
// records with a stable identity, and collapses near-duplicate rows into one
// canonical bet per event and subject.
package feed

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"plusev/internal/odds"
)

// EventTimeLayout is the canonical form event start times are stored in.
const EventTimeLayout = "2006-01-02 15:04"

const observedAtLayout = "2006-01-02 15:04:05"

// RawRecord is one scraped row exactly as it lands in a drop file. Everything
// is a string because the scraper emits "N/A" for any cell it could not read.
type RawRecord struct {
	Timestamp      string `json:"timestamp"`
	EVPercent      string `json:"ev_percent"`
	EventTime      string `json:"event_time"`
	EventTeams     string `json:"event_teams"`
	SportLeague    string `json:"sport_league"`
	BetType        string `json:"bet_type"`
	Description    string `json:"description"`
	Odds           string `json:"odds"`
	Sportsbook     string `json:"sportsbook"`
	BetSize        string `json:"bet_size"`
	WinProbability string `json:"win_probability"`
}

// Record is the typed form of an observed opportunity. BetID is stable across
// repeated observations of the same line; everything else reflects this
// observation.
type Record struct {
	BetID          string
	ObservedAt     time.Time
	EVPercent      float64
	EventTime      time.Time
	EventTeams     string
	SportLeague    string
	BetType        string
	Description    string
	Odds           int
	Sportsbook     string
	BetSize        *float64
	WinProbability *float64
}

// BetID derives the identity digest for a bet line. The same line observed
// again must hash to the same id, so only fields that never change between
// observations participate.
func BetID(eventTime, eventTeams, sportLeague, betType, description string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s|%s",
		eventTime, eventTeams, sportLeague, betType, description)))
	return hex.EncodeToString(sum[:])
}

// Normalize converts a scraped row into a Record. Rows missing a usable EV
// percent, odds, or event time are rejected: the grader has nothing to work
// with. Bet size and win probability stay nil when the feed had none.
func Normalize(raw RawRecord) (Record, error) {
	observed, err := time.Parse(observedAtLayout, strings.TrimSpace(raw.Timestamp))
	if err != nil {
		return Record{}, fmt.Errorf("parsing observation timestamp: %w", err)
	}

	ev, err := odds.ParsePercent(raw.EVPercent)
	if err != nil {
		return Record{}, fmt.Errorf("parsing ev percent: %w", err)
	}

	american, err := odds.ParseAmerican(raw.Odds)
	if err != nil {
		return Record{}, fmt.Errorf("parsing odds: %w", err)
	}

	eventTime, err := CanonicalEventTime(raw.EventTime, observed)
	if err != nil {
		return Record{}, fmt.Errorf("parsing event time: %w", err)
	}

	rec := Record{
		ObservedAt:     observed,
		EVPercent:      ev,
		EventTime:      eventTime,
		EventTeams:     strings.TrimSpace(raw.EventTeams),
		SportLeague:    strings.TrimSpace(raw.SportLeague),
		BetType:        strings.TrimSpace(raw.BetType),
		Description:    strings.TrimSpace(raw.Description),
		Odds:           american,
		Sportsbook:     strings.TrimSpace(raw.Sportsbook),
		BetSize:        optionalNumber(raw.BetSize),
		WinProbability: optionalNumber(raw.WinProbability),
	}
	rec.BetID = BetID(eventTime.Format(EventTimeLayout), rec.EventTeams,
		rec.SportLeague, rec.BetType, rec.Description)
	return rec, nil
}

// CanonicalEventTime rewrites feed times like "Wed, Feb 5 at 2:30 PM" (and
// the "Today at" / "Tomorrow at" variants) into a concrete timestamp. The
// feed never carries a year, so it is taken from the observation time, rolling
// into the next year when the event month has already passed.
func CanonicalEventTime(raw string, observed time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(EventTimeLayout, s); err == nil {
		return t, nil
	}

	if strings.Contains(s, "Today at") {
		s = strings.Replace(s, "Today", observed.Format("Mon, Jan 2"), 1)
	} else if strings.Contains(s, "Tomorrow at") {
		s = strings.Replace(s, "Tomorrow", observed.AddDate(0, 0, 1).Format("Mon, Jan 2"), 1)
	}

	datePart, timePart, ok := strings.Cut(s, " at ")
	if !ok {
		return time.Time{}, fmt.Errorf("no date/time separator in %q", raw)
	}

	clock, err := time.Parse("3:04 PM", strings.TrimSpace(timePart))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized clock time %q", timePart)
	}

	// Drop the weekday prefix. The feed's weekday refers to whichever year the
	// site meant, which is not necessarily the year we attach below.
	datePart = strings.TrimSpace(datePart)
	if _, rest, ok := strings.Cut(datePart, ", "); ok {
		datePart = rest
	}

	day, err := time.Parse("Jan 2, 2006", fmt.Sprintf("%s, %d", datePart, observed.Year()))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", datePart)
	}
	if day.Month() < observed.Month() {
		day = day.AddDate(1, 0, 0)
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

func optionalNumber(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "N/A" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Package publish pushes strong grades onto a Redis stream so downstream
// consumers see them the moment they are scored.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plusev/internal/grade"
)

// letterRank orders letters for the publish threshold.
var letterRank = map[string]int{"A": 4, "B": 3, "C": 2, "D": 1, "F": 0}

// Opportunity is the bet context published alongside a grade.
type Opportunity struct {
	Description string
	BetType     string
	EventTeams  string
	EventTime   string
	Sportsbook  string
	EVPercent   float64
	Odds        int
}

// StreamPublisher pushes graded opportunities to one Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	min    int
}

func NewStreamPublisher(client *redis.Client, stream, minLetter string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, min: letterRank[minLetter]}
}

// Eligible reports whether a letter clears the publish threshold.
func (p *StreamPublisher) Eligible(letter string) bool {
	rank, ok := letterRank[letter]
	return ok && rank >= p.min
}

type message struct {
	BetID       string  `json:"bet_id"`
	Letter      string  `json:"letter"`
	Composite   float64 `json:"composite"`
	Confidence  float64 `json:"confidence"`
	Method      string  `json:"method"`
	EVPercent   float64 `json:"ev_percent"`
	Odds        int     `json:"odds"`
	Description string  `json:"description"`
	BetType     string  `json:"bet_type"`
	EventTeams  string  `json:"event_teams"`
	EventTime   string  `json:"event_time"`
	Sportsbook  string  `json:"sportsbook"`
}

// Publish pushes one graded opportunity. Callers gate on Eligible; the flat
// bet_id and letter fields exist so consumers can filter without unpacking
// the JSON body.
func (p *StreamPublisher) Publish(ctx context.Context, g grade.Record, opp Opportunity) error {
	data, err := json.Marshal(message{
		BetID:       g.BetID,
		Letter:      g.Letter,
		Composite:   g.Composite,
		Confidence:  g.Confidence,
		Method:      g.Method,
		EVPercent:   opp.EVPercent,
		Odds:        opp.Odds,
		Description: opp.Description,
		BetType:     opp.BetType,
		EventTeams:  opp.EventTeams,
		EventTime:   opp.EventTime,
		Sportsbook:  opp.Sportsbook,
	})
	if err != nil {
		return fmt.Errorf("marshaling grade message: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":   string(data),
			"bet_id": g.BetID,
			"letter": g.Letter,
		},
	}).Err()
}

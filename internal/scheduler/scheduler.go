// Package scheduler orchestrates the pipeline: ingest feed drops, grade open
// opportunities, resolve concluded ones, and report performance, each on its
// own interval.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"plusev/internal/config"
	"plusev/internal/corpus"
	"plusev/internal/feed"
	"plusev/internal/grade"
	"plusev/internal/ledger"
	"plusev/internal/metrics"
	"plusev/internal/performance"
	"plusev/internal/publish"
	"plusev/internal/resolve"
	"plusev/internal/store"
)

// Scheduler owns the pipeline cycles and the dependencies they share.
// Publisher and cache are nil when Redis is disabled.
type Scheduler struct {
	reader    *feed.Reader
	store     *store.Store
	grader    *grade.Grader
	loader    *corpus.Loader
	cache     *corpus.Cache
	publisher *publish.StreamPublisher
	tracker   *performance.Tracker
	pipeline  *metrics.Pipeline
	cfg       config.Config
}

// New creates a new Scheduler with all dependencies.
func New(
	reader *feed.Reader,
	st *store.Store,
	grader *grade.Grader,
	loader *corpus.Loader,
	cache *corpus.Cache,
	publisher *publish.StreamPublisher,
	tracker *performance.Tracker,
	pipeline *metrics.Pipeline,
	cfg config.Config,
) *Scheduler {
	return &Scheduler{
		reader:    reader,
		store:     st,
		grader:    grader,
		loader:    loader,
		cache:     cache,
		publisher: publisher,
		tracker:   tracker,
		pipeline:  pipeline,
		cfg:       cfg,
	}
}

// Run starts all periodic loops and blocks until context is cancelled.
// Ingest, grade, and resolve run once immediately so a restart never waits a
// full interval; reporting waits for its first tick.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"ingest_interval", s.cfg.Schedule.IngestInterval.Duration,
		"grade_interval", s.cfg.Schedule.GradeInterval.Duration,
		"resolve_interval", s.cfg.Schedule.ResolveInterval.Duration,
		"report_interval", s.cfg.Schedule.ReportInterval.Duration,
	)

	// Run first cycles immediately.
	s.runIngestCycle()
	s.runGradeCycle(ctx)
	s.runResolveCycle(ctx)

	ingestTick := time.NewTicker(s.cfg.Schedule.IngestInterval.Duration)
	gradeTick := time.NewTicker(s.cfg.Schedule.GradeInterval.Duration)
	resolveTick := time.NewTicker(s.cfg.Schedule.ResolveInterval.Duration)
	reportTick := time.NewTicker(s.cfg.Schedule.ReportInterval.Duration)
	defer ingestTick.Stop()
	defer gradeTick.Stop()
	defer resolveTick.Stop()
	defer reportTick.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler shutting down")
			return ctx.Err()
		case <-ingestTick.C:
			s.runIngestCycle()
		case <-gradeTick.C:
			s.runGradeCycle(ctx)
		case <-resolveTick.C:
			s.runResolveCycle(ctx)
		case <-reportTick.C:
			s.runReportCycle()
		}
	}
}

// runIngestCycle drains the feed drop directory into the database, collapsing
// near-duplicate stat combination bets to one canonical entry per event and
// subject first.
func (s *Scheduler) runIngestCycle() {
	start := time.Now()
	defer func() { s.pipeline.ObserveCycle("ingest", time.Since(start)) }()

	batch, files, err := s.reader.ReadBatch()
	if err != nil {
		slog.Error("feed read failed", "error", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	keep := Dedupe(batch)
	saved, failed := 0, 0
	for _, rec := range keep {
		if err := s.store.SaveRecord(rec); err != nil {
			slog.Warn("saving record failed", "bet_id", rec.BetID, "error", err)
			failed++
			continue
		}
		saved++
	}
	if err := s.reader.Archive(files); err != nil {
		slog.Error("archiving drop files failed", "error", err)
	}

	deduped := len(batch) - len(keep)
	s.pipeline.RecordIngest(saved, deduped, failed)
	slog.Info("ingest cycle complete",
		"records", len(batch), "saved", saved, "deduped", deduped, "failed", failed)

	if n, err := s.store.CountOpen(time.Now()); err == nil {
		s.pipeline.SetOpenBets(n)
	}
}

// Dedupe collapses a batch down to one canonical player-stat bet per event
// and subject, preferring simpler markets and higher EV on ties. Records that
// do not parse as player stat markets pass through untouched, and every
// observation of a surviving bet is kept.
func Dedupe(batch []feed.Record) []feed.Record {
	var cands []feed.Candidate
	grouped := make(map[string]bool, len(batch))

	for _, rec := range batch {
		cond, err := resolve.Parse(rec.Description, rec.BetType)
		if err != nil || cond.Market != resolve.MarketPlayerStat {
			continue
		}
		grouped[rec.BetID] = true
		cands = append(cands, feed.Candidate{
			BetID:      rec.BetID,
			Event:      rec.EventTeams + "|" + rec.EventTime.Format(feed.EventTimeLayout),
			Subject:    cond.Subject,
			Components: len(cond.Categories),
			EVPercent:  rec.EVPercent,
		})
	}

	winners := make(map[string]bool, len(cands))
	for _, c := range feed.Dedupe(cands) {
		winners[c.BetID] = true
	}

	keep := make([]feed.Record, 0, len(batch))
	for _, rec := range batch {
		if grouped[rec.BetID] && !winners[rec.BetID] {
			continue
		}
		keep = append(keep, rec)
	}
	return keep
}

// runGradeCycle grades every open opportunity and publishes the ones worth
// surfacing.
func (s *Scheduler) runGradeCycle(ctx context.Context) {
	start := time.Now()
	defer func() { s.pipeline.ObserveCycle("grade", time.Since(start)) }()

	inputs, err := s.store.LoadGradeable(time.Now())
	if err != nil {
		slog.Error("loading gradeable bets failed", "error", err)
		return
	}
	if len(inputs) == 0 {
		slog.Info("no open opportunities to grade")
		return
	}

	records := s.gradeAll(inputs)
	for _, rec := range records {
		if err := s.store.InsertGrade(rec); err != nil {
			slog.Error("saving grade failed", "bet_id", rec.BetID, "error", err)
			continue
		}
		s.pipeline.RecordGrade(rec.Letter)
		s.publishGrade(ctx, rec)
	}
	slog.Info("grade cycle complete", "open", len(inputs), "graded", len(records))
}

// gradeAll fans evaluation out across the configured worker count. The grader
// is stateless, so workers share it freely; results are re-sorted by bet id
// to keep the insert order deterministic.
func (s *Scheduler) gradeAll(inputs []grade.Input) []grade.Record {
	jobs := make(chan grade.Input)
	var mu sync.Mutex
	var records []grade.Record

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Grading.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				rec, err := s.grader.Evaluate(in)
				if err != nil {
					slog.Warn("grading failed", "bet_id", in.BetID, "error", err)
					continue
				}
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
		}()
	}

	for _, in := range inputs {
		jobs <- in
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool { return records[i].BetID < records[j].BetID })
	return records
}

// publishGrade pushes one graded opportunity to the stream when a publisher
// is configured and the letter clears the threshold.
func (s *Scheduler) publishGrade(ctx context.Context, rec grade.Record) {
	if s.publisher == nil || !s.publisher.Eligible(rec.Letter) {
		return
	}
	detail, err := s.store.LoadBetDetail(rec.BetID)
	if err != nil {
		slog.Warn("loading bet for publish failed", "bet_id", rec.BetID, "error", err)
		return
	}
	opp := publish.Opportunity{
		Description: detail.Description,
		BetType:     detail.BetType,
		EventTeams:  detail.EventTeams,
		EventTime:   detail.EventTime,
		Sportsbook:  detail.Sportsbook,
		EVPercent:   detail.CurrentEV,
		Odds:        detail.CurrentOdds,
	}
	if err := s.publisher.Publish(ctx, rec, opp); err != nil {
		slog.Warn("publishing grade failed", "bet_id", rec.BetID, "error", err)
		return
	}
	s.pipeline.RecordPublish()
}

// runResolveCycle ingests any new box scores, then settles every concluded
// bet the corpus can decide. A bet that pends again for the same reason as
// last time is not re-recorded.
func (s *Scheduler) runResolveCycle(ctx context.Context) {
	start := time.Now()
	defer func() { s.pipeline.ObserveCycle("resolve", time.Since(start)) }()

	games, lines, err := s.loader.LoadPending()
	if err != nil {
		slog.Error("loading box scores failed", "error", err)
	} else if len(games) > 0 {
		slog.Info("corpus updated", "games", len(games), "lines", len(lines))
	}

	snap, err := s.loader.Snapshot()
	if err != nil {
		slog.Error("materializing corpus failed", "error", err)
		return
	}
	s.pipeline.SetCorpusSize(snap.Games(), snap.Lines())
	if s.cache != nil && len(games) > 0 {
		s.mirrorCorpus(ctx, snap, games, lines)
	}

	concluded := time.Now().Add(-s.cfg.Schedule.ConclusionBuffer.Duration)
	pending, err := s.store.LoadUnresolved(concluded)
	if err != nil {
		slog.Error("loading unresolved bets failed", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	now := time.Now()
	settled, held := 0, 0
	for _, p := range pending {
		out := resolve.Resolve(p.Bet, snap, now)
		if out.Result == resolve.PendManual {
			held++
			if out.Reason == p.LastReason {
				continue
			}
		}

		var entry *ledger.Entry
		if out.Result != resolve.PendManual {
			entry = s.settle(p.Bet.BetID, out.Result)
		}
		if err := s.store.InsertOutcome(out, entry); err != nil {
			slog.Error("saving outcome failed", "bet_id", p.Bet.BetID, "error", err)
			continue
		}
		if out.Result != resolve.PendManual {
			settled++
		}
		s.pipeline.RecordResolution(string(out.Result))
	}
	slog.Info("resolve cycle complete", "settled", settled, "held", held)
}

// settle builds the ledger entry for a decided bet, falling back to the
// configured unit stake when the feed never advertised a size. A failed
// lookup is logged and the outcome is stored without monetary fields.
func (s *Scheduler) settle(betID string, result resolve.Result) *ledger.Entry {
	size, taken, closing, err := s.store.SettlementInfo(betID)
	if err != nil {
		slog.Warn("settlement lookup failed", "bet_id", betID, "error", err)
		return nil
	}
	stake := s.cfg.Performance.Stake()
	if size != nil {
		stake = decimal.NewFromFloat(*size)
	}
	entry, err := ledger.ForOutcome(result, stake, taken, closing)
	if err != nil {
		slog.Warn("settling bet failed", "bet_id", betID, "error", err)
		return nil
	}
	return &entry
}

// mirrorCorpus pushes freshly loaded box scores into the cache. Date indexes
// are rebuilt from the full snapshot so a partial day's load never truncates
// them.
func (s *Scheduler) mirrorCorpus(ctx context.Context, snap *corpus.Snapshot,
	games []corpus.Game, lines []corpus.PlayerLine) {
	byGame := make(map[string][]corpus.PlayerLine, len(games))
	for _, l := range lines {
		byGame[l.GameID] = append(byGame[l.GameID], l)
	}

	dates := make(map[string]bool, len(games))
	for _, g := range games {
		if err := s.cache.WriteGame(ctx, g, byGame[g.ID]); err != nil {
			slog.Warn("caching game failed", "game_id", g.ID, "error", err)
		}
		dates[g.Date] = true
	}

	for date := range dates {
		day := snap.GamesOn(date)
		ids := make([]string, len(day))
		for i, g := range day {
			ids[i] = g.ID
		}
		if err := s.cache.WriteDateIndex(ctx, date, ids); err != nil {
			slog.Warn("caching date index failed", "date", date, "error", err)
		}
	}
}

func (s *Scheduler) runReportCycle() {
	start := time.Now()
	defer func() { s.pipeline.ObserveCycle("report", time.Since(start)) }()

	report, err := s.tracker.Generate()
	if err != nil {
		slog.Error("performance report failed", "error", err)
		return
	}
	performance.LogReport(report)
}

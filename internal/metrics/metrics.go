// Package metrics exposes the pipeline's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline collects what each cycle reports: ingest volume, grade and
// outcome distributions, corpus size, and per-cycle latency.
type Pipeline struct {
	registry *prometheus.Registry

	FeedRecords      *prometheus.CounterVec
	GradesTotal      *prometheus.CounterVec
	ResolutionsTotal *prometheus.CounterVec
	PublishesTotal   prometheus.Counter
	OpenBets         prometheus.Gauge
	CorpusGames      prometheus.Gauge
	CorpusLines      prometheus.Gauge
	CycleDuration    *prometheus.HistogramVec
}

func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),

		FeedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plusev_feed_records_total",
				Help: "Feed records processed, by what happened to them",
			},
			[]string{"status"},
		),
		GradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plusev_grades_total",
				Help: "Grades assigned, by letter",
			},
			[]string{"letter"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plusev_resolutions_total",
				Help: "Resolution outcomes recorded, by result",
			},
			[]string{"result"},
		),
		PublishesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plusev_stream_publishes_total",
				Help: "Grades pushed to the Redis stream",
			},
		),
		OpenBets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plusev_open_bets",
				Help: "Tracked opportunities whose event has not started",
			},
		),
		CorpusGames: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plusev_corpus_games",
				Help: "Completed games in the result corpus",
			},
		),
		CorpusLines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plusev_corpus_player_lines",
				Help: "Player stat lines in the result corpus",
			},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plusev_cycle_duration_seconds",
				Help:    "Wall time per pipeline cycle",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"cycle"},
		),
	}

	p.registry.MustRegister(
		p.FeedRecords,
		p.GradesTotal,
		p.ResolutionsTotal,
		p.PublishesTotal,
		p.OpenBets,
		p.CorpusGames,
		p.CorpusLines,
		p.CycleDuration,
	)
	return p
}

// Handler serves the registry for scraping.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Pipeline) RecordIngest(saved, deduped, failed int) {
	p.FeedRecords.WithLabelValues("saved").Add(float64(saved))
	p.FeedRecords.WithLabelValues("deduped").Add(float64(deduped))
	p.FeedRecords.WithLabelValues("failed").Add(float64(failed))
}

func (p *Pipeline) RecordGrade(letter string) {
	p.GradesTotal.WithLabelValues(letter).Inc()
}

func (p *Pipeline) RecordResolution(result string) {
	p.ResolutionsTotal.WithLabelValues(result).Inc()
}

func (p *Pipeline) RecordPublish() {
	p.PublishesTotal.Inc()
}

func (p *Pipeline) SetOpenBets(n int) {
	p.OpenBets.Set(float64(n))
}

func (p *Pipeline) SetCorpusSize(games, lines int) {
	p.CorpusGames.Set(float64(games))
	p.CorpusLines.Set(float64(lines))
}

func (p *Pipeline) ObserveCycle(cycle string, elapsed time.Duration) {
	p.CycleDuration.WithLabelValues(cycle).Observe(elapsed.Seconds())
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"plusev/internal/grade"
)

type Config struct {
	General     GeneralConfig     `toml:"general"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Grading     GradingConfig     `toml:"grading"`
	Feed        FeedConfig        `toml:"feed"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Redis       RedisConfig       `toml:"redis"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Performance PerformanceConfig `toml:"performance"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

type ScheduleConfig struct {
	IngestInterval  Duration `toml:"ingest_interval"`
	GradeInterval   Duration `toml:"grade_interval"`
	ResolveInterval Duration `toml:"resolve_interval"`
	ReportInterval  Duration `toml:"report_interval"`
	// ConclusionBuffer is how long after tipoff a bet is considered
	// concluded and eligible for resolution.
	ConclusionBuffer Duration `toml:"conclusion_buffer"`
}

type GradingConfig struct {
	MethodVersion   string           `toml:"method_version"`
	EVCeiling       float64          `toml:"ev_ceiling"`
	EVDecaySlope    float64          `toml:"ev_decay_slope"`
	TimingPeakHours float64          `toml:"timing_peak_hours"`
	TimingWidth     float64          `toml:"timing_width"`
	VolatilityScale float64          `toml:"volatility_scale"`
	ConfidencePrior float64          `toml:"confidence_prior"`
	ConfidenceFloor float64          `toml:"confidence_floor"`
	Workers         int              `toml:"workers"`
	Weights         WeightsConfig    `toml:"weights"`
	Thresholds      ThresholdsConfig `toml:"thresholds"`
}

type WeightsConfig struct {
	EV         float64 `toml:"ev"`
	Timing     float64 `toml:"timing"`
	Trend      float64 `toml:"trend"`
	Confidence float64 `toml:"confidence"`
}

type ThresholdsConfig struct {
	A float64 `toml:"a"`
	B float64 `toml:"b"`
	C float64 `toml:"c"`
	D float64 `toml:"d"`
}

type FeedConfig struct {
	DropDir string `toml:"drop_dir"`
}

type CorpusConfig struct {
	DropDir string `toml:"drop_dir"`
}

type RedisConfig struct {
	Enabled  bool     `toml:"enabled"`
	Addr     string   `toml:"addr"`
	Stream   string   `toml:"stream"`
	CacheTTL Duration `toml:"cache_ttl"`
	// MinPublishGrade is the weakest letter still pushed to the stream.
	MinPublishGrade string `toml:"min_publish_grade"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type PerformanceConfig struct {
	TieCounting string `toml:"tie_counting"`
	UnitStake   string `toml:"unit_stake"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Method assembles the grading method from the configured tunables.
func (g GradingConfig) Method() grade.Method {
	return grade.Method{
		Version:         g.MethodVersion,
		EVCeiling:       g.EVCeiling,
		EVDecaySlope:    g.EVDecaySlope,
		TimingPeakHours: g.TimingPeakHours,
		TimingWidth:     g.TimingWidth,
		VolatilityScale: g.VolatilityScale,
		ConfidencePrior: g.ConfidencePrior,
		ConfidenceFloor: g.ConfidenceFloor,
		Weights: grade.Weights{
			EV:         g.Weights.EV,
			Timing:     g.Weights.Timing,
			Trend:      g.Weights.Trend,
			Confidence: g.Weights.Confidence,
		},
		Thresholds: grade.Thresholds{
			A: g.Thresholds.A,
			B: g.Thresholds.B,
			C: g.Thresholds.C,
			D: g.Thresholds.D,
		},
	}
}

// Stake parses the configured unit stake. Call Validate first.
func (p PerformanceConfig) Stake() decimal.Decimal {
	d, err := decimal.NewFromString(p.UnitStake)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot start under. Everything
// here fails at boot, not mid-cycle.
func (c *Config) Validate() error {
	if c.General.DBPath == "" {
		return fmt.Errorf("general.db_path is empty")
	}
	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("general.log_level %q unknown", c.General.LogLevel)
	}

	intervals := []struct {
		name string
		d    Duration
	}{
		{"schedule.ingest_interval", c.Schedule.IngestInterval},
		{"schedule.grade_interval", c.Schedule.GradeInterval},
		{"schedule.resolve_interval", c.Schedule.ResolveInterval},
		{"schedule.report_interval", c.Schedule.ReportInterval},
	}
	for _, iv := range intervals {
		if iv.d.Duration <= 0 {
			return fmt.Errorf("%s must be positive", iv.name)
		}
	}
	if c.Schedule.ConclusionBuffer.Duration < 0 {
		return fmt.Errorf("schedule.conclusion_buffer must not be negative")
	}

	if err := c.Grading.Method().Validate(); err != nil {
		return fmt.Errorf("grading: %w", err)
	}
	if c.Grading.Workers < 1 {
		return fmt.Errorf("grading.workers must be at least 1")
	}

	if c.Feed.DropDir == "" {
		return fmt.Errorf("feed.drop_dir is empty")
	}
	if c.Corpus.DropDir == "" {
		return fmt.Errorf("corpus.drop_dir is empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is empty with redis enabled")
		}
		if c.Redis.Stream == "" {
			return fmt.Errorf("redis.stream is empty with redis enabled")
		}
		switch c.Redis.MinPublishGrade {
		case "A", "B", "C", "D":
		default:
			return fmt.Errorf("redis.min_publish_grade %q is not a letter grade", c.Redis.MinPublishGrade)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is empty with metrics enabled")
	}

	switch c.Performance.TieCounting {
	case "excluded", "win", "loss":
	default:
		return fmt.Errorf("performance.tie_counting %q unknown", c.Performance.TieCounting)
	}
	stake, err := decimal.NewFromString(c.Performance.UnitStake)
	if err != nil {
		return fmt.Errorf("performance.unit_stake %q: %w", c.Performance.UnitStake, err)
	}
	if !stake.IsPositive() {
		return fmt.Errorf("performance.unit_stake %s must be positive", stake)
	}

	return nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "./data/plusev.db",
			LogLevel: "info",
		},
		Schedule: ScheduleConfig{
			IngestInterval:   Duration{2 * time.Minute},
			GradeInterval:    Duration{5 * time.Minute},
			ResolveInterval:  Duration{30 * time.Minute},
			ReportInterval:   Duration{6 * time.Hour},
			ConclusionBuffer: Duration{6 * time.Hour},
		},
		Grading: GradingConfig{
			MethodVersion:   "bayes-v2",
			EVCeiling:       15.0,
			EVDecaySlope:    0.5,
			TimingPeakHours: 2.0,
			TimingWidth:     1.2,
			VolatilityScale: 5.0,
			ConfidencePrior: 0.52,
			ConfidenceFloor: 50.0,
			Workers:         4,
			Weights: WeightsConfig{
				EV:         0.50,
				Timing:     0.15,
				Trend:      0.15,
				Confidence: 0.20,
			},
			Thresholds: ThresholdsConfig{
				A: 90,
				B: 80,
				C: 70,
				D: 65,
			},
		},
		Feed: FeedConfig{
			DropDir: "./data/feed",
		},
		Corpus: CorpusConfig{
			DropDir: "./data/corpus",
		},
		Redis: RedisConfig{
			Enabled:         false,
			Addr:            "localhost:6379",
			Stream:          "plusev.grades",
			CacheTTL:        Duration{24 * time.Hour},
			MinPublishGrade: "B",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9187",
		},
		Performance: PerformanceConfig{
			TieCounting: "excluded",
			UnitStake:   "1",
		},
	}
}

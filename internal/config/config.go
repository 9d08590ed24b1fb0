// Load envs from .env
// Load YAML config
// Override from env, fill defaults, validate

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-joblog-automation/internal/engine"
	"go-joblog-automation/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither an explicit path nor JOBLOG_CONFIG is given.
const DefaultPath = "configs/config.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Queries  []QueryConfig  `yaml:"queries"`
	Engine   EngineConfig   `yaml:"engine"`
	Filter   FilterConfig   `yaml:"filter"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Telegram TelegramConfig `yaml:"telegram"`

	// Source is the file the config was read from, empty when only defaults apply.
	Source string `yaml:"-"`
}

type QueryConfig struct {
	Query        string   `yaml:"query"`
	Locations    []string `yaml:"locations"`
	Time         string   `yaml:"time"`
	Types        []string `yaml:"types"`
	PageOffset   *int     `yaml:"page_offset"`
	Limit        int      `yaml:"limit"`
	SkipPromoted *bool    `yaml:"skip_promoted"`
	ApplyLink    bool     `yaml:"apply_link"`
}

type EngineConfig struct {
	Headless          *bool         `yaml:"headless"`
	SlowMo            time.Duration `yaml:"slow_mo"`
	PageLoadTimeout   time.Duration `yaml:"page_load_timeout"`
	MaxWorkers        int           `yaml:"max_workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgent         string        `yaml:"user_agent"`
	CookiesPath       string        `yaml:"cookies_path"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
}

type FilterConfig struct {
	Keywords []string `yaml:"keywords"`
}

type OutputConfig struct {
	Backend     string `yaml:"backend"` // csv, sqlite, postgres
	Path        string `yaml:"path"`
	Delimiter   string `yaml:"delimiter"`
	Layout      string `yaml:"layout"`
	DatabaseURL string `yaml:"database_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type TelegramConfig struct {
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
	MaxJobs int    `yaml:"max_jobs"`
}

// Enabled reports whether both bot credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads .env, the YAML file at path (or JOBLOG_CONFIG, or DefaultPath),
// applies env overrides and defaults, then validates.
// A missing file is only tolerated for the default path.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := true
	if path == "" {
		path = os.Getenv("JOBLOG_CONFIG")
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", ErrInvalid, err)
		}
		c.Telegram.ChatID = id
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Output.DatabaseURL = url
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if out := os.Getenv("OUTPUT_PATH"); out != "" {
		c.Output.Path = out
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Queries) == 0 {
		c.Queries = []QueryConfig{{Query: "Data Engineer"}}
	}
	for i := range c.Queries {
		q := &c.Queries[i]
		if len(q.Locations) == 0 {
			q.Locations = []string{"Germany"}
		}
		if q.Time == "" {
			q.Time = string(engine.TimeDay)
		}
		if len(q.Types) == 0 {
			q.Types = []string{string(engine.TypeFullTime)}
		}
		if q.PageOffset == nil {
			q.PageOffset = intPtr(2)
		}
		if q.Limit == 0 {
			q.Limit = 3000
		}
		if q.SkipPromoted == nil {
			q.SkipPromoted = boolPtr(true)
		}
	}

	if c.Engine.Headless == nil {
		c.Engine.Headless = boolPtr(true)
	}
	if c.Engine.SlowMo == 0 {
		c.Engine.SlowMo = 2 * time.Second
	}
	if c.Engine.PageLoadTimeout == 0 {
		c.Engine.PageLoadTimeout = 300 * time.Second
	}
	if c.Engine.MaxWorkers == 0 {
		c.Engine.MaxWorkers = 1
	}
	if c.Engine.UserAgent == "" {
		c.Engine.UserAgent = defaultUserAgent
	}
	if c.Engine.ScreenshotDir == "" {
		c.Engine.ScreenshotDir = "logs/screenshots"
	}

	if c.Filter.Keywords == nil {
		c.Filter.Keywords = []string{"relocat", "visa"}
	}

	if c.Output.Backend == "" {
		c.Output.Backend = BackendCSV
	}
	if c.Output.Path == "" {
		switch c.Output.Backend {
		case BackendSQLite:
			c.Output.Path = "outputs/jobs_log.db"
		case BackendCSV:
			c.Output.Path = "outputs/jobs_log.csv"
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Telegram.MaxJobs == 0 {
		c.Telegram.MaxJobs = 10
	}
}

// Validate reports every problem found, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(c.Queries) == 0 {
		bad("at least one query is required")
	}
	for i, q := range c.Queries {
		if strings.TrimSpace(q.Query) == "" {
			bad("queries[%d].query is required", i)
		}
		if len(q.Locations) == 0 {
			bad("queries[%d].locations is empty", i)
		}
		if _, err := engine.ParseTimeFilter(q.Time); err != nil {
			bad("queries[%d]: %v", i, err)
		}
		for _, t := range q.Types {
			if _, err := engine.ParseTypeFilter(t); err != nil {
				bad("queries[%d]: %v", i, err)
			}
		}
		if q.PageOffset != nil && *q.PageOffset < 0 {
			bad("queries[%d].page_offset must be >= 0", i)
		}
		if q.Limit < 0 {
			bad("queries[%d].limit must not be negative", i)
		}
	}

	// collection order is the order rows reach the dataset
	if c.Engine.MaxWorkers != 1 {
		bad("engine.max_workers must be 1, got %d", c.Engine.MaxWorkers)
	}
	if c.Engine.SlowMo < 0 {
		bad("engine.slow_mo must be >= 0")
	}
	if c.Engine.PageLoadTimeout <= 0 {
		bad("engine.page_load_timeout must be > 0")
	}
	if c.Engine.RequestsPerSecond < 0 {
		bad("engine.requests_per_second must be >= 0")
	}

	switch c.Output.Backend {
	case BackendCSV, BackendSQLite:
		if c.Output.Path == "" {
			bad("output.path is required for the %s backend", c.Output.Backend)
		}
	case BackendPostgres:
		if c.Output.DatabaseURL == "" {
			bad("output.database_url (or DATABASE_URL) is required for the postgres backend")
		}
	default:
		bad("unknown output.backend %q", c.Output.Backend)
	}
	if _, err := models.LayoutByName(c.Output.Layout); err != nil {
		bad("output.layout: %v", err)
	}
	if _, err := c.Output.DelimiterRune(); err != nil {
		bad("output.delimiter: %v", err)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		bad("unknown logging.format %q", c.Logging.Format)
	}

	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		bad("telegram needs both token and chat_id")
	}
	if c.Telegram.MaxJobs < 0 {
		bad("telegram.max_jobs must be >= 0")
	}

	return errors.Join(errs...)
}

// DelimiterRune parses output.delimiter. Zero means infer from the file extension.
func (o OutputConfig) DelimiterRune() (rune, error) {
	switch strings.ToLower(o.Delimiter) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", o.Delimiter)
}

// ResolveLayout resolves output.layout.
func (o OutputConfig) ResolveLayout() (models.Layout, error) {
	return models.LayoutByName(o.Layout)
}

// EngineQueries converts the configured searches for the engine.
func (c *Config) EngineQueries() ([]engine.Query, error) {
	out := make([]engine.Query, 0, len(c.Queries))
	for i, q := range c.Queries {
		tf, err := engine.ParseTimeFilter(q.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: queries[%d]: %v", ErrInvalid, i, err)
		}
		types := make([]engine.TypeFilter, 0, len(q.Types))
		for _, t := range q.Types {
			f, err := engine.ParseTypeFilter(t)
			if err != nil {
				return nil, fmt.Errorf("%w: queries[%d]: %v", ErrInvalid, i, err)
			}
			types = append(types, f)
		}
		opts := engine.QueryOptions{
			Locations: q.Locations,
			Time:      tf,
			Types:     types,
			Limit:     q.Limit,
			ApplyLink: q.ApplyLink,
		}
		if q.PageOffset != nil {
			opts.PageOffset = *q.PageOffset
		}
		if q.SkipPromoted != nil {
			opts.SkipPromoted = *q.SkipPromoted
		}
		out = append(out, engine.Query{Keywords: q.Query, Options: opts})
	}
	return out, nil
}

// IsHeadless defaults to true when unset.
func (e EngineConfig) IsHeadless() bool {
	return e.Headless == nil || *e.Headless
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

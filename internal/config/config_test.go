package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-joblog-automation/internal/engine"
	"go-joblog-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"JOBLOG_CONFIG", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "LOG_LEVEL", "OUTPUT_PATH"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Full(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "full.yaml"), cfg.Source)
	require.Len(t, cfg.Queries, 2)
	assert.False(t, cfg.Engine.IsHeadless())
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.SlowMo)
	assert.Equal(t, time.Minute, cfg.Engine.PageLoadTimeout)
	assert.Equal(t, []string{"relocation", "Visa"}, cfg.Filter.Keywords)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Telegram.Enabled())

	delim, err := cfg.Output.DelimiterRune()
	require.NoError(t, err)
	assert.Equal(t, '\t', delim)

	queries, err := cfg.EngineQueries()
	require.NoError(t, err)
	assert.Equal(t, engine.Query{
		Keywords: "Data Engineer",
		Options: engine.QueryOptions{
			Locations:    []string{"Germany", "Netherlands"},
			Time:         engine.TimeWeek,
			Types:        []engine.TypeFilter{engine.TypeFullTime, engine.TypeContract},
			PageOffset:   0,
			Limit:        50,
			SkipPromoted: false,
		},
	}, queries[0])

	// second query takes the defaults
	assert.Equal(t, []string{"Germany"}, queries[1].Options.Locations)
	assert.Equal(t, engine.TimeDay, queries[1].Options.Time)
	assert.Equal(t, 2, queries[1].Options.PageOffset)
	assert.Equal(t, 3000, queries[1].Options.Limit)
	assert.True(t, queries[1].Options.SkipPromoted)
}

func TestLoad_DefaultsWhenDefaultFileMissing(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	require.Len(t, cfg.Queries, 1)
	assert.Equal(t, "Data Engineer", cfg.Queries[0].Query)
	assert.True(t, cfg.Engine.IsHeadless())
	assert.Equal(t, 2*time.Second, cfg.Engine.SlowMo)
	assert.Equal(t, 300*time.Second, cfg.Engine.PageLoadTimeout)
	assert.Equal(t, 1, cfg.Engine.MaxWorkers)
	assert.Equal(t, BackendCSV, cfg.Output.Backend)
	assert.Equal(t, "outputs/jobs_log.csv", cfg.Output.Path)
	assert.Equal(t, []string{"relocat", "visa"}, cfg.Filter.Keywords)

	layout, err := cfg.Output.ResolveLayout()
	require.NoError(t, err)
	assert.Equal(t, models.LayoutLatest.Name, layout.Name)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOBLOG_CONFIG", filepath.Join("testdata", "full.yaml"))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-10042")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("OUTPUT_PATH", "elsewhere/jobs.csv")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(-10042), cfg.Telegram.ChatID)
	assert.Equal(t, 3, cfg.Telegram.MaxJobs)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "elsewhere/jobs.csv", cfg.Output.Path)
}

func TestLoad_BadChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	_, err := Load(filepath.Join("testdata", "full.yaml"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_InvalidReportsEveryProblem(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join("testdata", "bad.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, want := range []string{
		"queries[0].query is required",
		"fortnight",
		"gig",
		"max_workers must be 1",
		`unknown output.backend "s3"`,
		"output.layout",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Output.Backend = BackendPostgres },
			wantErr: "database_url",
		},
		{
			name:    "half telegram",
			mutate:  func(c *Config) { c.Telegram.Token = "t" },
			wantErr: "both token and chat_id",
		},
		{
			name:    "negative offset",
			mutate:  func(c *Config) { c.Queries[0].PageOffset = intPtr(-1) },
			wantErr: "page_offset",
		},
		{
			name:    "bad delimiter",
			mutate:  func(c *Config) { c.Output.Delimiter = "::" },
			wantErr: "unsupported delimiter",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOutputConfig_DelimiterRune(t *testing.T) {
	tests := map[string]rune{"": 0, ",": ',', "comma": ',', "\t": '\t', `\t`: '\t', "TAB": '\t', ";": ';'}
	for in, want := range tests {
		got, err := OutputConfig{Delimiter: in}.DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Crawler     CrawlerConfig    `toml:"crawler"`
	LLM         LLMConfig        `toml:"llm"`
	OpenAI      OpenAIConfig     `toml:"openai"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Perplexity  PerplexityConfig `toml:"perplexity"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Notify      NotifyConfig     `toml:"notify"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// CrawlerConfig contains fetch and parse settings shared by all source kinds
type CrawlerConfig struct {
	UserAgent      string        `toml:"user_agent"`      // Default user agent string
	RequestTimeout time.Duration `toml:"request_timeout"` // Per-attempt HTTP timeout
	MaxRetries     int           `toml:"max_retries"`     // Fetch attempts per URL
	RatePerMinute  int           `toml:"rate_per_minute"` // Per-host request budget
	SampleBytes    int           `toml:"sample_bytes"`    // HTML sample size for self-heal prompts
}

// LLMConfig contains orchestrator-level settings
type LLMConfig struct {
	PreferredProvider string        `toml:"preferred_provider"` // Optional override: openai, anthropic, google, perplexity
	RequestTimeout    time.Duration `toml:"request_timeout"`    // Per-provider call timeout
	MaxRetries        int           `toml:"max_retries"`        // Per-client retry attempts
}

type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type PerplexityConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type SchedulerConfig struct {
	Timezone string `toml:"timezone"` // Default timezone for cron schedules
}

// PipelineConfig bounds the coordinator
type PipelineConfig struct {
	Workers        int           `toml:"workers"`          // Worker pool size
	MaxRetries     int           `toml:"max_retries"`      // Coordinator-level crawl retries
	RetryDelay     time.Duration `toml:"retry_delay"`      // Fixed delay between coordinator retries
	JobTimeout     time.Duration `toml:"job_timeout"`      // Hard wall-clock cap per job
	JobSoftTimeout time.Duration `toml:"job_soft_timeout"` // Graceful-stop threshold
	EnrichBatch    int           `toml:"enrich_batch"`     // Max items per enrich pass
	NotifyBatch    int           `toml:"notify_batch"`     // Max items per notify pass
	MinImportance  float64       `toml:"min_importance"`   // Importance threshold for notification
}

type NotifyConfig struct {
	SlackToken   string `toml:"slack_token"`
	SlackChannel string `toml:"slack_channel"`
	WebhookURL   string `toml:"webhook_url"`
}

// DefaultConfig returns a config with defaults applied
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/argus"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Crawler: CrawlerConfig{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RatePerMinute:  60,
			SampleBytes:    10000,
		},
		LLM: LLMConfig{
			RequestTimeout: 60 * time.Second,
			MaxRetries:     3,
		},
		OpenAI:     OpenAIConfig{Model: "gpt-4-turbo-preview"},
		Claude:     ClaudeConfig{Model: "claude-3-sonnet-20240229", MaxTokens: 4096, Temperature: 0.7},
		Gemini:     GeminiConfig{Model: "gemini-pro", Temperature: 0.7},
		Perplexity: PerplexityConfig{Model: "pplx-70b-online", BaseURL: "https://api.perplexity.ai"},
		Scheduler:  SchedulerConfig{Timezone: "Asia/Seoul"},
		Pipeline: PipelineConfig{
			Workers:        4,
			MaxRetries:     3,
			RetryDelay:     60 * time.Second,
			JobTimeout:     10 * time.Minute,
			JobSoftTimeout: 9 * time.Minute,
			EnrichBatch:    100,
			NotifyBatch:    50,
			MinImportance:  0.7,
		},
	}
}

// LoadFromFiles loads configuration from TOML files in order, later files
// overriding earlier ones, then applies ARGUS_* environment overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides maps ARGUS_* environment variables onto the config.
// Credentials are the common case: keys are injected per deployment rather
// than committed to the config file.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("ARGUS_OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("ARGUS_ANTHROPIC_API_KEY"); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv("ARGUS_GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("ARGUS_PERPLEXITY_API_KEY"); v != "" {
		c.Perplexity.APIKey = v
	}
	if v := os.Getenv("ARGUS_SLACK_TOKEN"); v != "" {
		c.Notify.SlackToken = v
	}
	if v := os.Getenv("ARGUS_STORAGE_PATH"); v != "" {
		c.Storage.Badger.Path = v
	}
	if v := os.Getenv("ARGUS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARGUS_PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Workers = n
		}
	}
}

// Validate checks config invariants that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1")
	}
	if c.Crawler.MaxRetries < 1 {
		return fmt.Errorf("crawler max_retries must be at least 1")
	}
	if c.Pipeline.JobSoftTimeout > c.Pipeline.JobTimeout {
		return fmt.Errorf("job_soft_timeout must not exceed job_timeout")
	}
	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// ValidateCronSchedule verifies a cron expression before a schedule is admitted
func ValidateCronSchedule(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("schedule expression is empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Invitation InvitationConfig `yaml:"invitation"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis connection settings for the ingest queue.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ExtractionConfig selects and configures the AI extraction strategy.
type ExtractionConfig struct {
	// Strategy is "openai" (single-prompt, default) or "bedrock"
	// (legacy three-call extractor).
	Strategy string `yaml:"strategy"`

	OpenAI  OpenAIConfig  `yaml:"openai"`
	Bedrock BedrockConfig `yaml:"bedrock"`

	// MaxRetries is the transport-failure retry budget; backoff doubles
	// per attempt starting at BackoffBaseMS milliseconds.
	MaxRetries    int `yaml:"max_retries"`
	BackoffBaseMS int `yaml:"backoff_base_ms"`
}

// OpenAIConfig holds OpenAI chat-completions settings.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// BedrockConfig holds AWS Bedrock settings for the legacy extractor.
type BedrockConfig struct {
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// ResolverConfig selects the publisher matching policy.
type ResolverConfig struct {
	// Policy is "strict" (email + active + verified, default) or "loose"
	// (best candidate by email alone). A deployment uses exactly one.
	Policy string `yaml:"policy"`

	// InvitationTTLHours is the validity window for invitation tokens on
	// newly created shadow publishers.
	InvitationTTLHours int `yaml:"invitation_ttl_hours"`
}

// ThresholdConfig centralizes every confidence cutoff used by the
// reconciler and the review scheduler. All values are tunable without
// touching control flow.
type ThresholdConfig struct {
	// AutoApprove and above: activate the publisher immediately, no queue row.
	AutoApprove float64 `yaml:"auto_approve"`
	// MediumReview and above: queue with a delayed auto-approval timer.
	MediumReview float64 `yaml:"medium_review"`
	// LowReview and above: queue for manual review only.
	LowReview float64 `yaml:"low_review"`
	// Below LowReview the entry is flagged very-low-confidence.

	// OfferingMatch gates whether an extraction is confident enough to be
	// matched against an existing offering at all.
	OfferingMatch float64 `yaml:"offering_match"`
	// FieldUpdate gates overwriting individual stored fields (base price,
	// currency, turnaround) on an existing publisher's offering.
	FieldUpdate float64 `yaml:"field_update"`

	// AutoApproveDelayHours is the timer for medium-band queue entries.
	AutoApproveDelayHours int `yaml:"auto_approve_delay_hours"`
}

// InvitationConfig holds outbound invitation email settings (SESv2).
type InvitationConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Region       string `yaml:"region"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	SignupURL    string `yaml:"signup_url"`
	TemplatePath string `yaml:"template_path"`
}

// ArchiveConfig holds raw inbound payload archival settings (S3).
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
}

// IngestConfig holds inbound email queue settings.
type IngestConfig struct {
	QueueKey    string `yaml:"queue_key"`
	DedupTTLMin int    `yaml:"dedup_ttl_minutes"`
	Concurrency int    `yaml:"concurrency"`
}

// SweeperConfig holds the auto-approval sweep settings.
type SweeperConfig struct {
	Enabled             bool `yaml:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds"`
	BatchSize           int  `yaml:"batch_size"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Extraction.Strategy == "" {
		cfg.Extraction.Strategy = "openai"
	}
	if cfg.Extraction.OpenAI.Model == "" {
		cfg.Extraction.OpenAI.Model = "gpt-4o"
	}
	if cfg.Extraction.OpenAI.BaseURL == "" {
		cfg.Extraction.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Extraction.OpenAI.TimeoutSeconds == 0 {
		cfg.Extraction.OpenAI.TimeoutSeconds = 60
	}
	if cfg.Extraction.Bedrock.ModelID == "" {
		cfg.Extraction.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Extraction.Bedrock.Region == "" {
		cfg.Extraction.Bedrock.Region = "us-east-1"
	}
	if cfg.Extraction.MaxRetries == 0 {
		cfg.Extraction.MaxRetries = 3
	}
	if cfg.Extraction.BackoffBaseMS == 0 {
		cfg.Extraction.BackoffBaseMS = 500
	}
	if cfg.Resolver.Policy == "" {
		cfg.Resolver.Policy = "strict"
	}
	if cfg.Resolver.InvitationTTLHours == 0 {
		cfg.Resolver.InvitationTTLHours = 168 // 7 days
	}
	if cfg.Thresholds.AutoApprove == 0 {
		cfg.Thresholds.AutoApprove = 0.85
	}
	if cfg.Thresholds.MediumReview == 0 {
		cfg.Thresholds.MediumReview = 0.70
	}
	if cfg.Thresholds.LowReview == 0 {
		cfg.Thresholds.LowReview = 0.50
	}
	if cfg.Thresholds.OfferingMatch == 0 {
		cfg.Thresholds.OfferingMatch = 0.60
	}
	if cfg.Thresholds.FieldUpdate == 0 {
		cfg.Thresholds.FieldUpdate = 0.70
	}
	if cfg.Thresholds.AutoApproveDelayHours == 0 {
		cfg.Thresholds.AutoApproveDelayHours = 48
	}
	if cfg.Invitation.Region == "" {
		cfg.Invitation.Region = "us-east-1"
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "inbound"
	}
	if cfg.Ingest.QueueKey == "" {
		cfg.Ingest.QueueKey = "publisher:inbound:queue"
	}
	if cfg.Ingest.DedupTTLMin == 0 {
		cfg.Ingest.DedupTTLMin = 1440
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 4
	}
	if cfg.Sweeper.TickIntervalSeconds == 0 {
		cfg.Sweeper.TickIntervalSeconds = 300
	}
	if cfg.Sweeper.BatchSize == 0 {
		cfg.Sweeper.BatchSize = 100
	}
}

// LoadFromEnv loads configuration from the environment alone, with
// defaults for everything not set. A .env file (if present) is loaded
// first, so secrets can live in .env locally and in real env vars in
// deployment.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.applyDefaults()

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Extraction.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Extraction.OpenAI.Model = v
	}
	if v := os.Getenv("EXTRACTION_STRATEGY"); v != "" {
		cfg.Extraction.Strategy = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Extraction.Bedrock.ModelID = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Extraction.Bedrock.Region = v
		cfg.Invitation.Region = v
		cfg.Archive.Region = v
	}
	if v := os.Getenv("INVITATION_FROM"); v != "" {
		cfg.Invitation.FromAddress = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
		cfg.Archive.Enabled = true
	}

	return cfg, nil
}

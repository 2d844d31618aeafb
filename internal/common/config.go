package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Discovery   DiscoveryConfig `toml:"discovery"`
	Chunking    ChunkingConfig  `toml:"chunking"`
	Expansion   ExpansionConfig `toml:"expansion"`
	Consensus   ConsensusConfig `toml:"consensus"`
	Course      CourseConfig    `toml:"course"`
	Prompts     PromptsConfig   `toml:"prompts"`
	Export      ExportConfig    `toml:"export"`
	Refresh     RefreshConfig   `toml:"refresh"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format string   `toml:"format"`                                       // "json" or "text"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

// FetcherConfig contains HTTP article fetching configuration
type FetcherConfig struct {
	UserAgent      string        `toml:"user_agent"`      // User agent string for article requests
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	MaxBodySize    int           `toml:"max_body_size"`   // Maximum response body size in bytes
	RequestDelay   time.Duration `toml:"request_delay"`   // Minimum delay between requests to same host
	MaxRetries     int           `toml:"max_retries"`     // Retry attempts for transient fetch failures
}

// DiscoveryConfig provides seed URLs for source discovery. Discovery
// backends (search APIs) are external; seeds let a run proceed without one.
type DiscoveryConfig struct {
	VideoURLs   []string `toml:"video_urls"`   // Caption file paths or URLs
	ArticleURLs []string `toml:"article_urls"` // Article URLs
	MaxVideos   int      `toml:"max_videos"`   // Default video candidate cap
	MaxArticles int      `toml:"max_articles"` // Default article candidate cap
}

// ChunkingConfig controls semantic chunk boundaries
type ChunkingConfig struct {
	MinWords              int     `toml:"min_words" validate:"min=1"` // Minimum chunk size in words
	MaxWords              int     `toml:"max_words" validate:"min=1"` // Maximum chunk size in words
	TargetWords           int     `toml:"target_words" validate:"min=1"`
	SimilarityThreshold   float64 `toml:"similarity_threshold"`   // Embedding boundary threshold
	CoherenceThreshold    float64 `toml:"coherence_threshold"`    // Chunks below this coherence are repaired
	CompletenessThreshold float64 `toml:"completeness_threshold"` // Chunks below this completeness are repaired
	UseEmbeddings         bool    `toml:"use_embeddings"`         // Use embedding boundaries when a provider is available
}

// ExpansionConfig controls LLM chunk expansion
type ExpansionConfig struct {
	Concurrency  int `toml:"concurrency" validate:"min=1"` // Concurrent chunk expansions
	ContextChars int `toml:"context_chars"`                // Preceding-chunk context budget in characters
}

// ConsensusConfig controls cross-source claim clustering
type ConsensusConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"` // Cosine threshold for claim clustering
}

// CourseConfig controls course structure generation and assembly
type CourseConfig struct {
	MinSectionWords int     `toml:"min_section_words"` // Minimum words for a full-credit section
	Temperature     float32 `toml:"temperature"`       // Structure generation temperature
	MaxTokens       int     `toml:"max_tokens"`        // Structure generation token budget
	TargetTakeaways int     `toml:"target_takeaways"`  // Key takeaways per section
	TargetQuestions int     `toml:"target_questions"`  // Practice questions per section
}

// PromptsConfig contains prompt template directory configuration
type PromptsConfig struct {
	Dir string `toml:"dir"` // Directory containing prompt template files (*.txt)
}

// ExportConfig contains course export configuration
type ExportConfig struct {
	Dir     string   `toml:"dir"`     // Directory for exported course files
	Formats []string `toml:"formats"` // "markdown", "pdf"
}

// RefreshConfig controls scheduled re-ingestion of stale sources
type RefreshConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default
	Schedule string `toml:"schedule"` // Cron schedule format
	MaxAge   string `toml:"max_age"`  // Sources older than this are re-fetched (duration string)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Chat model (default: "gemini-3-flash-preview")
	EmbedModel  string  `toml:"embed_model"` // Embedding model (default: "gemini-embedding-001")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Chat completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in cursana.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Fetcher: FetcherConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			RequestDelay:   1 * time.Second,
			MaxRetries:     3,
		},
		Discovery: DiscoveryConfig{
			MaxVideos:   3,
			MaxArticles: 3,
		},
		Chunking: ChunkingConfig{
			MinWords:              100,
			MaxWords:              400,
			TargetWords:           250,
			SimilarityThreshold:   0.7,
			CoherenceThreshold:    0.7,
			CompletenessThreshold: 0.6,
			UseEmbeddings:         true,
		},
		Expansion: ExpansionConfig{
			Concurrency:  3,
			ContextChars: 500,
		},
		Consensus: ConsensusConfig{
			SimilarityThreshold: 0.85,
		},
		Course: CourseConfig{
			MinSectionWords: 100,
			Temperature:     0.4,
			MaxTokens:       4096,
			TargetTakeaways: 3,
			TargetQuestions: 3,
		},
		Prompts: PromptsConfig{
			Dir: "./prompts",
		},
		Export: ExportConfig{
			Dir:     "./exports",
			Formats: []string{"markdown"},
		},
		Refresh: RefreshConfig{
			Enabled:  false,           // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format)
			MaxAge:   "168h",          // One week
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-3-flash-preview",
			EmbedModel:  "gemini-embedding-001",
			Timeout:     "5m",
			RateLimit:   "4s", // Default to 4s (15 RPM) for free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment variables (overrides file config)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Chunking.MinWords >= c.Chunking.MaxWords {
		return fmt.Errorf("invalid configuration: chunking min_words (%d) must be less than max_words (%d)",
			c.Chunking.MinWords, c.Chunking.MaxWords)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: CURSANA_ENV, fallback: GO_ENV)
	if env := os.Getenv("CURSANA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("CURSANA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("CURSANA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CURSANA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Fetcher configuration
	if userAgent := os.Getenv("CURSANA_FETCHER_USER_AGENT"); userAgent != "" {
		config.Fetcher.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("CURSANA_FETCHER_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Fetcher.RequestTimeout = rt
		}
	}
	if maxRetries := os.Getenv("CURSANA_FETCHER_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.Fetcher.MaxRetries = mr
		}
	}

	// Expansion configuration
	if concurrency := os.Getenv("CURSANA_EXPANSION_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Expansion.Concurrency = c
		}
	}

	// API keys
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if provider := os.Getenv("CURSANA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

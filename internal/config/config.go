package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for coldreach.
type Config struct {
	LLM          LLMConfig
	Embedding    EmbeddingConfig
	Store        StoreConfig
	Portfolio    PortfolioConfig
	Scrape       ScrapeConfig
	Server       ServerConfig
	Sender       SenderConfig
	Notification NotificationConfig
}

// LLMConfig selects the chat model used for extraction and composition.
type LLMConfig struct {
	Provider string        // "openai" (any OpenAI-compatible API, Groq by default) or "gemini"
	BaseURL  string        // openai provider only
	Model    string        // empty means the provider default
	APIKey   string        // may be empty; every run then fails at the config stage
	Timeout  time.Duration // per-request timeout
}

// EmbeddingConfig selects how portfolio tech stacks and skills are embedded.
type EmbeddingConfig struct {
	Provider   string // "hash", "ollama", "openai" or "gemini"
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	BatchSize  int           // texts per Embed call during ingest
	MinDelay   time.Duration // minimum gap between ingest batches
	MaxRetries int           // extra attempts per ingest batch on transient errors
	RetryDelay time.Duration // base backoff delay
}

// StoreConfig locates the persistent portfolio collection.
type StoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// PortfolioConfig points at the CSV used to seed an empty collection.
type PortfolioConfig struct {
	CSV string `yaml:"csv"`
}

// ScrapeConfig controls job page fetching.
type ScrapeConfig struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// ServerConfig controls the HTTP request surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SenderConfig is the persona the email is written as.
type SenderConfig struct {
	Name    string `yaml:"name"`
	Role    string `yaml:"role"`
	Company string `yaml:"company"`
}

// NotificationConfig controls where composed drafts are delivered.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "none", "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const slackWebhookPrefix = "https://hooks.slack.com/"

const (
	defaultGroqBaseURL  = "https://api.groq.com/openai/v1"
	defaultGroqModel    = "llama3-70b-8192"
	defaultStorePath    = "vectorstore/portfolio.db"
	defaultCollection   = "portfolio"
	defaultPortfolioCSV = "my_portfolio.csv"
	defaultServerAddr   = ":8080"
	defaultUserAgent    = "Mozilla/5.0 (compatible; coldreach/1.0)"
	defaultMaxBytes     = 5 << 20
)

var (
	llmProviders       = []string{"openai", "gemini"}
	embeddingProviders = []string{"hash", "ollama", "openai", "gemini"}
	notificationTypes  = []string{"none", "log", "slack"}
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	LLM          rawLLMConfig       `yaml:"llm"`
	Embedding    rawEmbeddingConfig `yaml:"embedding"`
	Store        StoreConfig        `yaml:"store"`
	Portfolio    PortfolioConfig    `yaml:"portfolio"`
	Scrape       rawScrapeConfig    `yaml:"scrape"`
	Server       ServerConfig       `yaml:"server"`
	Sender       SenderConfig       `yaml:"sender"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawLLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawEmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Timeout    string `yaml:"timeout"`
	BatchSize  *int   `yaml:"batch_size"`
	MinDelay   string `yaml:"min_delay"`
	MaxRetries *int   `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
}

type rawScrapeConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
	MaxBytes  int64  `yaml:"max_bytes"`
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	return Parse(nil)
}

// Parse expands ${VAR} references in data, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(raw rawConfig) (*Config, error) {
	var err error
	cfg := &Config{}

	// LLM
	cfg.LLM = LLMConfig{
		Provider: strings.ToLower(orDefault(raw.LLM.Provider, "openai")),
		BaseURL:  raw.LLM.BaseURL,
		Model:    raw.LLM.Model,
		APIKey:   raw.LLM.APIKey,
	}
	if cfg.LLM.Timeout, err = parseDuration("llm.timeout", raw.LLM.Timeout, 60*time.Second); err != nil {
		return nil, err
	}
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.BaseURL = orDefault(cfg.LLM.BaseURL, defaultGroqBaseURL)
		cfg.LLM.Model = orDefault(cfg.LLM.Model, defaultGroqModel)
		cfg.LLM.APIKey = orDefault(cfg.LLM.APIKey, os.Getenv("GROQ_API_KEY"))
	case "gemini":
		cfg.LLM.APIKey = orDefault(cfg.LLM.APIKey, firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"))
	}

	// Embedding
	cfg.Embedding = EmbeddingConfig{
		Provider: strings.ToLower(orDefault(raw.Embedding.Provider, "hash")),
		BaseURL:  raw.Embedding.BaseURL,
		Model:    raw.Embedding.Model,
		APIKey:   raw.Embedding.APIKey,
	}
	switch cfg.Embedding.Provider {
	case "openai":
		cfg.Embedding.APIKey = orDefault(cfg.Embedding.APIKey, os.Getenv("OPENAI_API_KEY"))
	case "gemini":
		cfg.Embedding.APIKey = orDefault(cfg.Embedding.APIKey, firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"))
	}
	if cfg.Embedding.Timeout, err = parseDuration("embedding.timeout", raw.Embedding.Timeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Embedding.MinDelay, err = parseDuration("embedding.min_delay", raw.Embedding.MinDelay, 0); err != nil {
		return nil, err
	}
	if cfg.Embedding.RetryDelay, err = parseDuration("embedding.retry_delay", raw.Embedding.RetryDelay, time.Second); err != nil {
		return nil, err
	}
	cfg.Embedding.BatchSize = 32
	if raw.Embedding.BatchSize != nil {
		cfg.Embedding.BatchSize = *raw.Embedding.BatchSize
	}
	cfg.Embedding.MaxRetries = 3
	if raw.Embedding.MaxRetries != nil {
		cfg.Embedding.MaxRetries = *raw.Embedding.MaxRetries
	}

	// Store and portfolio
	cfg.Store = StoreConfig{
		Path:       orDefault(raw.Store.Path, defaultStorePath),
		Collection: orDefault(raw.Store.Collection, defaultCollection),
	}
	cfg.Portfolio = PortfolioConfig{CSV: orDefault(raw.Portfolio.CSV, defaultPortfolioCSV)}

	// Scrape
	cfg.Scrape = ScrapeConfig{
		UserAgent: orDefault(raw.Scrape.UserAgent, defaultUserAgent),
		MaxBytes:  raw.Scrape.MaxBytes,
	}
	if cfg.Scrape.MaxBytes == 0 {
		cfg.Scrape.MaxBytes = defaultMaxBytes
	}
	if cfg.Scrape.Timeout, err = parseDuration("scrape.timeout", raw.Scrape.Timeout, 30*time.Second); err != nil {
		return nil, err
	}

	// Server: an explicit addr wins, then $PORT, then :8080.
	cfg.Server.Addr = raw.Server.Addr
	if cfg.Server.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.Addr = ":" + port
		} else {
			cfg.Server.Addr = defaultServerAddr
		}
	}

	cfg.Sender = SenderConfig{
		Name:    orDefault(raw.Sender.Name, "Mohan"),
		Role:    orDefault(raw.Sender.Role, "business development executive"),
		Company: orDefault(raw.Sender.Company, "AtliQ"),
	}

	cfg.Notification = NotificationConfig{
		Type:       strings.ToLower(orDefault(raw.Notification.Type, "log")),
		WebhookURL: strings.TrimSpace(raw.Notification.WebhookURL),
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if !slices.Contains(llmProviders, cfg.LLM.Provider) {
		return fmt.Errorf("llm.provider must be one of %v, got %q", llmProviders, cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %v", cfg.LLM.Timeout)
	}

	if !slices.Contains(embeddingProviders, cfg.Embedding.Provider) {
		return fmt.Errorf("embedding.provider must be one of %v, got %q", embeddingProviders, cfg.Embedding.Provider)
	}
	if (cfg.Embedding.Provider == "openai" || cfg.Embedding.Provider == "gemini") && cfg.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required when embedding.provider is %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding.timeout must be positive, got %v", cfg.Embedding.Timeout)
	}
	if cfg.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative, got %d", cfg.Embedding.MaxRetries)
	}
	if cfg.Embedding.MinDelay < 0 {
		return fmt.Errorf("embedding.min_delay must not be negative, got %v", cfg.Embedding.MinDelay)
	}

	if strings.TrimSpace(cfg.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	if cfg.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be positive, got %v", cfg.Scrape.Timeout)
	}
	if cfg.Scrape.MaxBytes < 0 {
		return fmt.Errorf("scrape.max_bytes must not be negative, got %d", cfg.Scrape.MaxBytes)
	}

	if !slices.Contains(notificationTypes, cfg.Notification.Type) {
		return fmt.Errorf("notification.type must be one of %v, got %q", notificationTypes, cfg.Notification.Type)
	}
	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	}

	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

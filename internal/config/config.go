// Package config holds the process wide settings loaded once at startup
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"ask-api/internal/shared"
)

// Store backends
const (
	StoreFirestore = "firestore"
	StoreRedis     = "redis"
	StoreSQL       = "mysql"
	StoreMemory    = "memory"
)

// Config is built once in main and passed by pointer, never mutated after
// New returns.
type Config struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	FirebaseCreds []byte
	ProjectID     string

	DailyLimit   int64
	StoreBackend string
	RedisAddr    string
	DSN          string

	MetricsAPIKey string
	Port          string
	Debug         bool

	// problems found while loading; /ask refuses to serve while non-empty
	problems []error
}

type Options struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	FirebaseCreds string
	DailyLimit    int64
	StoreBackend  string
	RedisAddr     string
	DSN           string
	MetricsAPIKey string
	Port          string
	Debug         bool
}

type serviceAccount struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// New never fails. Missing or broken settings are recorded so the liveness
// route can still come up; callers check Ready before serving /ask.
func New(opts Options) *Config {
	cfg := &Config{
		GeminiAPIKey:  opts.GeminiAPIKey,
		GeminiModel:   opts.GeminiModel,
		GeminiBaseURL: opts.GeminiBaseURL,
		DailyLimit:    opts.DailyLimit,
		StoreBackend:  opts.StoreBackend,
		RedisAddr:     opts.RedisAddr,
		DSN:           opts.DSN,
		MetricsAPIKey: opts.MetricsAPIKey,
		Port:          opts.Port,
		Debug:         opts.Debug,
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = shared.DefaultGeminiModel
	}
	if cfg.GeminiBaseURL == "" {
		cfg.GeminiBaseURL = shared.DefaultGeminiBaseURL
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = shared.DailyLimit
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = StoreFirestore
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.GeminiAPIKey == "" {
		cfg.problems = append(cfg.problems, errors.New("GEMINI_API_KEY not set"))
	}
	if opts.FirebaseCreds == "" {
		cfg.problems = append(cfg.problems, errors.New("FIREBASE_CREDS not set"))
		return cfg
	}
	var sa serviceAccount
	if err := json.Unmarshal([]byte(opts.FirebaseCreds), &sa); err != nil {
		cfg.problems = append(cfg.problems, fmt.Errorf("FIREBASE_CREDS is not valid json: %w", err))
		return cfg
	}
	if sa.ProjectID == "" {
		cfg.problems = append(cfg.problems, errors.New("FIREBASE_CREDS has no project_id"))
		return cfg
	}
	cfg.FirebaseCreds = []byte(opts.FirebaseCreds)
	cfg.ProjectID = sa.ProjectID
	return cfg
}

// Ready reports whether the credentials needed by /ask are present
func (c *Config) Ready() bool {
	return c != nil && len(c.problems) == 0
}

// Problems joins everything that keeps the config from being ready
func (c *Config) Problems() error {
	if c == nil {
		return errors.New("config not loaded")
	}
	return errors.Join(c.problems...)
}

package model

import "time"

// Config holds the complete service configuration
type Config struct {
	App        AppConfig        `yaml:"app" mapstructure:"app"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
}

// AppConfig holds application-wide settings
type AppConfig struct {
	Env string `yaml:"env" mapstructure:"env"` // development or production
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// SessionConfig controls how long an idle workflow session is kept
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ProcessingConfig controls the simulated processing pipeline
type ProcessingConfig struct {
	StageDuration time.Duration `yaml:"stage_duration" mapstructure:"stage_duration"`
	StageJitter   time.Duration `yaml:"stage_jitter" mapstructure:"stage_jitter"`
	TickInterval  time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	SampleFile    string        `yaml:"sample_file" mapstructure:"sample_file"` // empty uses the built-in dataset
}

// ExportConfig controls the decision summary document
type ExportConfig struct {
	Brand         string `yaml:"brand" mapstructure:"brand"`
	Currency      string `yaml:"currency" mapstructure:"currency"`
	RowsPerPage   int    `yaml:"rows_per_page" mapstructure:"rows_per_page"`
	FirstPageRows int    `yaml:"first_page_rows" mapstructure:"first_page_rows"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// LLMConfig holds the optional narrative note provider settings
type LLMConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"` // openai, ollama or empty (disabled)
	Model         string `yaml:"model" mapstructure:"model"`
	APIKey        string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout       int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens     int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictAmounts bool   `yaml:"strict_amounts" mapstructure:"strict_amounts"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env: "development",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  20 << 20,
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Session: SessionConfig{
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Processing: ProcessingConfig{
			StageDuration: 1500 * time.Millisecond,
			StageJitter:   1500 * time.Millisecond,
			TickInterval:  350 * time.Millisecond,
		},
		Export: ExportConfig{
			Brand:         "ClaimAdjudicate.ai",
			Currency:      "INR",
			RowsPerPage:   25,
			FirstPageRows: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Timeout:       30,
			MaxTokens:     400,
			StrictAmounts: true,
		},
	}
}

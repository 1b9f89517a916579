package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Extract   ExtractConfig
	LLM       LLMConfig
	Scheduler SchedulerConfig
	Ingest    IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string // "postgres" | "sqlite"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds daemon listener configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
	TessdataDir   string
}

// LLMConfig holds enrichment-adapter configuration
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// SchedulerConfig holds enrichment scheduler configuration
type SchedulerConfig struct {
	Concurrency          int
	IdleInterval         time.Duration
	BusyPause            time.Duration
	ErrorPause           time.Duration
	TaskTimeout          time.Duration
	MaxRetryAttempts     int
	EnableSummarization  bool
	EnableClassification bool
	DefaultLabels        []string
}

// IngestConfig holds directory-watcher configuration
type IngestConfig struct {
	WatchDirs   []string
	InitialScan bool
	Workers     int
	QueueSize   int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		Extract: ExtractConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Scheduler: SchedulerConfig{
			Concurrency:          getEnvAsInt("SCHEDULER_CONCURRENCY", 3),
			IdleInterval:         getEnvAsDuration("SCHEDULER_IDLE_INTERVAL", 5*time.Second),
			BusyPause:            getEnvAsDuration("SCHEDULER_BUSY_PAUSE", 2*time.Second),
			ErrorPause:           getEnvAsDuration("SCHEDULER_ERROR_PAUSE", 10*time.Second),
			TaskTimeout:          getEnvAsDuration("SCHEDULER_TASK_TIMEOUT", 60*time.Second),
			MaxRetryAttempts:     getEnvAsInt("MAX_RETRY_ATTEMPTS", 3),
			EnableSummarization:  getEnvAsBool("ENABLE_SUMMARIZATION", true),
			EnableClassification: getEnvAsBool("ENABLE_CLASSIFICATION", true),
			DefaultLabels:        getEnvAsList("CLASSIFY_LABELS", defaultLabels),
		},
		Ingest: IngestConfig{
			WatchDirs:   getEnvAsList("WATCH_DIRS", nil),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
			Workers:     getEnvAsInt("INGEST_WORKERS", 4),
			QueueSize:   getEnvAsInt("INGEST_QUEUE_SIZE", 256),
		},
	}
}

var defaultLabels = []string{
	"business", "personal", "academic", "legal",
	"medical", "technical", "financial", "travel", "other",
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.Scheduler.Concurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "SCHEDULER_CONCURRENCY must be positive", ErrInvalidInput)
	}
	return nil
}

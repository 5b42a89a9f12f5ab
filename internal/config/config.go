package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the configuration for the corpus builder
type Config struct {
	DataDir    string
	Preprocess PreprocessConfig
	Log        LogConfig
	Sites      SitesConfig
	Embeddings EmbeddingsConfig
}

// PreprocessConfig holds settings for turning feed files into sentence lines
type PreprocessConfig struct {
	InputDir      string
	OutputPath    string
	LinesPerChunk int
	MinSentLen    int
	Workers       int
	Tokenizer     string
	CreateUncased bool
	GlobalDedup   bool
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string
	File      string
	MaxSizeMB int
}

// SitesConfig points at the crawl site definitions
type SitesConfig struct {
	Path     string
	FeedDir  string
	CrawlDir string
}

// EmbeddingsConfig holds the embedding output settings
type EmbeddingsConfig struct {
	SentlinesDir string
	OutputDir    string
	Dims         int
	SaveText     bool
	Compress     bool
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	dataDir := GetStringEnv("FWE_DATA_DIR", "./data")
	return &Config{
		DataDir: dataDir,
		Preprocess: PreprocessConfig{
			InputDir:      GetStringEnv("PREPROCESS_INPUT_DIR", filepath.Join(dataDir, "feed")),
			OutputPath:    GetStringEnv("PREPROCESS_OUTPUT_PATH", filepath.Join(dataDir, "processed", "all.sl")),
			LinesPerChunk: GetIntEnv("PREPROCESS_LINES_PER_CHUNK", 30000),
			MinSentLen:    GetIntEnv("PREPROCESS_MIN_SENT_LEN", 5),
			Workers:       GetIntEnv("PREPROCESS_WORKERS", 3),
			Tokenizer:     GetStringEnv("PREPROCESS_TOKENIZER", "tweet"),
			CreateUncased: GetBoolEnv("PREPROCESS_CREATE_UNCASED", true),
			GlobalDedup:   GetBoolEnv("PREPROCESS_GLOBAL_DEDUP", false),
		},
		Log: LogConfig{
			Level:     GetStringEnv("LOG_LEVEL", "info"),
			File:      GetStringEnv("LOG_FILE", "run.log"),
			MaxSizeMB: GetIntEnv("LOG_MAX_SIZE_MB", 100),
		},
		Sites: SitesConfig{
			Path:     GetStringEnv("SITES_CONFIG", ""),
			FeedDir:  GetStringEnv("SITES_FEED_DIR", filepath.Join(dataDir, "feed")),
			CrawlDir: GetStringEnv("SITES_CRAWL_DIR", filepath.Join(dataDir, "crawl")),
		},
		Embeddings: EmbeddingsConfig{
			SentlinesDir: GetStringEnv("EMBEDDINGS_SENTLINES_DIR", filepath.Join(dataDir, "processed")),
			OutputDir:    GetStringEnv("EMBEDDINGS_DIR", filepath.Join(dataDir, "embeddings")),
			Dims:         GetIntEnv("EMBEDDINGS_DIMS", 300),
			SaveText:     GetBoolEnv("EMBEDDINGS_SAVE_TEXT", false),
			Compress:     GetBoolEnv("EMBEDDINGS_COMPRESS", true),
		},
	}
}

// Validate reports the first setting that cannot drive a preprocessing run
func (c PreprocessConfig) Validate() error {
	switch {
	case c.InputDir == "":
		return fmt.Errorf("input directory must be set")
	case c.OutputPath == "":
		return fmt.Errorf("output path must be set")
	case c.LinesPerChunk <= 0:
		return fmt.Errorf("lines per chunk must be positive, got %d", c.LinesPerChunk)
	case c.Workers <= 0:
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	case c.MinSentLen < 0:
		return fmt.Errorf("minimum sentence length must not be negative, got %d", c.MinSentLen)
	}
	return nil
}

func GetStringEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr         string
	DBPath             string
	VisionBackend      string
	OllamaHost         string
	OllamaModel        string
	ClaudeAPIKey       string
	ClaudeModel        string
	PhotoPath          string
	LogLevel           string
	LogFile            string
	RatesFile          string
	DetectConcurrency  int64
	DetectMaxDimension int
	DetectTimeout      time.Duration
	MaxUploadMB        int64
}

func Load() *Config {
	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "/data/movequote.db"),
		VisionBackend:      getEnv("VISION_BACKEND", "ollama"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:       getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:        getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		PhotoPath:          getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		RatesFile:          getEnv("RATES_FILE", ""),
		DetectConcurrency:  getEnvInt("DETECT_CONCURRENCY", 1),
		DetectMaxDimension: int(getEnvInt("DETECT_MAX_DIMENSION", 1568)),
		DetectTimeout:      getEnvDuration("DETECT_TIMEOUT", 2*time.Minute),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 32),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvInt falls back to defaultVal when the variable is unset, malformed or
// not positive.
func getEnvInt(key string, defaultVal int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

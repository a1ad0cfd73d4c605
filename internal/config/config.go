package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the service reads at startup. Values come from
// the environment; an invalid value logs a warning and keeps the fallback so
// a bad .env entry never aborts the run.
type Config struct {
	WatchFolder      string
	OutputFormat     string
	CanvasWidth      int
	CanvasHeight     int
	Padding          int
	Tolerance        int
	JPEGQuality      int
	DebounceWindow   time.Duration
	SuppressWindow   time.Duration
	DecodeAttempts   int
	DecodeRetryDelay time.Duration
	WatchWrites      bool
	LogDir           string
	LogMaxBytes      int64
	LogMaxSegments   int
	JournalDSN       string
}

// FromEnv builds a Config from the process environment. WATCH_FOLDER keeps
// its historical name; every other key carries the NI_ prefix.
func FromEnv() Config {
	return Config{
		WatchFolder:      stringEnv("WATCH_FOLDER", "./ni_watch"),
		OutputFormat:     stringEnv("NI_OUTPUT_FORMAT", "jpeg"),
		CanvasWidth:      intEnv("NI_CANVAS_WIDTH", 800),
		CanvasHeight:     intEnv("NI_CANVAS_HEIGHT", 800),
		Padding:          intEnv("NI_PADDING", 50),
		Tolerance:        intEnv("NI_TOLERANCE", 10),
		JPEGQuality:      intEnv("NI_JPEG_QUALITY", 90),
		DebounceWindow:   durationEnv("NI_DEBOUNCE_WINDOW", 2*time.Second),
		SuppressWindow:   durationEnv("NI_SUPPRESS_WINDOW", 2*time.Second),
		DecodeAttempts:   intEnv("NI_DECODE_ATTEMPTS", 5),
		DecodeRetryDelay: durationEnv("NI_DECODE_RETRY_DELAY", 200*time.Millisecond),
		WatchWrites:      boolEnv("NI_WATCH_WRITES", false),
		LogDir:           stringEnv("NI_LOG_DIR", "logs"),
		LogMaxBytes:      int64Env("NI_LOG_MAX_BYTES", 1<<20),
		LogMaxSegments:   intEnv("NI_LOG_MAX_SEGMENTS", 5),
		JournalDSN:       stringEnv("NI_JOURNAL_DSN", ""),
	}
}

func stringEnv(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}

func boolEnv(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %v", name, raw, fallback)
		return fallback
	}
	return value
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds all console configuration values.
type Config struct {
	ListenPort           int
	APIKey               string
	InstanceID           string
	ClusterEnabled       bool
	Namespace            string   // "" watches every namespace
	Resources            []string // resource kinds to collect; nil means all
	InformerResyncPeriod time.Duration
	InformerSyncTimeout  time.Duration
	RequestTimeout       time.Duration
	MaxRequestBytes      int64
	ErrorDisplayLimit    int
	SessionIdleTimeout   time.Duration
	StatsEnabled         bool // poll metrics-server for pod usage when it is served
	StatsInterval        time.Duration
	Version              string

	// Client
	ServerURL        string // KCONSOLE_SERVER_URL, used by consolectl
	MaxRetries       int
	CompressionLevel int

	// Security
	DebugEndpoints bool // KCONSOLE_DEBUG_ENDPOINTS, default: false; enables pprof/debug routes
}

// Load reads configuration from environment variables and returns a Config
// with defaults applied for any unset values.
func Load() Config {
	cfg := Config{
		ListenPort:           parseInt("KCONSOLE_LISTEN_PORT", 8080),
		APIKey:               os.Getenv("KCONSOLE_API_KEY"),
		InstanceID:           os.Getenv("KCONSOLE_INSTANCE_ID"),
		ClusterEnabled:       parseBool("KCONSOLE_CLUSTER_ENABLED", true),
		Namespace:            envOrDefault("KCONSOLE_NAMESPACE", ""),
		Resources:            parseStringSlice("KCONSOLE_RESOURCES"),
		InformerResyncPeriod: parseDuration("KCONSOLE_INFORMER_RESYNC", 300*time.Second),
		InformerSyncTimeout:  parseDuration("KCONSOLE_INFORMER_SYNC_TIMEOUT", 2*time.Minute),
		RequestTimeout:       parseDuration("KCONSOLE_REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBytes:      parseInt64("KCONSOLE_MAX_REQUEST_BYTES", 1<<20),
		ErrorDisplayLimit:    parseInt("KCONSOLE_ERROR_DISPLAY_LIMIT", 5),
		SessionIdleTimeout:   parseDuration("KCONSOLE_SESSION_IDLE_TIMEOUT", 30*time.Minute),
		StatsEnabled:         parseBool("KCONSOLE_STATS_ENABLED", true),
		StatsInterval:        parseDuration("KCONSOLE_STATS_INTERVAL", 30*time.Second),
		Version:              envOrDefault("KCONSOLE_VERSION", "dev"),
		ServerURL:            envOrDefault("KCONSOLE_SERVER_URL", "http://localhost:8080"),
		MaxRetries:           parseInt("KCONSOLE_MAX_RETRIES", 3),
		CompressionLevel:     parseInt("KCONSOLE_COMPRESSION_LEVEL", 3),
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.New().String()
	}

	cfg.DebugEndpoints = parseBool("KCONSOLE_DEBUG_ENDPOINTS", false)

	return cfg
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// parseDuration tries time.ParseDuration first, then falls back to treating
// the value as integer seconds.
func parseDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(v)
	if err == nil {
		return d
	}

	// Fallback: treat as integer seconds
	secs, err := strconv.Atoi(v)
	if err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func parseBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func parseInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func parseStringSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func parseInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the Config contains valid values.
// Returns an error describing the first invalid field found.
func (c Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("config: ListenPort must be 1-65535, got %d", c.ListenPort)
	}

	if c.ClusterEnabled && c.InformerSyncTimeout <= 0 {
		return fmt.Errorf("config: InformerSyncTimeout must be > 0, got %v", c.InformerSyncTimeout)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: RequestTimeout must be > 0, got %v", c.RequestTimeout)
	}

	if c.MaxRequestBytes < 1024 {
		return fmt.Errorf("config: MaxRequestBytes must be >= 1024, got %d", c.MaxRequestBytes)
	}

	if c.ErrorDisplayLimit < 1 {
		return fmt.Errorf("config: ErrorDisplayLimit must be >= 1, got %d", c.ErrorDisplayLimit)
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("config: SessionIdleTimeout must be > 0, got %v", c.SessionIdleTimeout)
	}

	if c.StatsEnabled && c.StatsInterval < time.Second {
		return fmt.Errorf("config: StatsInterval must be >= 1s, got %v", c.StatsInterval)
	}

	return c.ValidateClient()
}

// ValidateClient checks only the fields consolectl depends on.
func (c Config) ValidateClient() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: KCONSOLE_SERVER_URL is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("config: KCONSOLE_SERVER_URL must start with http:// or https:// (got %q)", c.ServerURL)
	}

	if c.CompressionLevel < 1 || c.CompressionLevel > 4 {
		return fmt.Errorf("config: CompressionLevel must be 1-4, got %d", c.CompressionLevel)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("config: MaxRetries must be >= 0, got %d", c.MaxRetries)
	}

	return nil
}

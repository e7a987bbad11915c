package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/stillsync/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'stillsync config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMatching() error {
	for name, value := range map[string]float64{
		"matching.accept_score":       c.Matching.AcceptScore,
		"matching.second_query_score": c.Matching.SecondQueryScore,
		"matching.year_penalty":       c.Matching.YearPenalty,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Matching.YearTolerance < 0 {
		return errors.New("matching.year_tolerance must not be negative")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if err := ensurePositiveMap(map[string]int{
		"download.workers":            c.Download.Workers,
		"download.request_timeout":    c.Download.RequestTimeout,
		"download.retry_attempts":     c.Download.RetryAttempts,
		"download.retry_initial_wait": c.Download.RetryInitialWait,
		"download.retry_max_wait":     c.Download.RetryMaxWait,
		"download.pacing_cap":         c.Download.PacingCap,
	}); err != nil {
		return err
	}
	if c.Download.PacingBase < 0 || c.Download.PacingSpread < 0 {
		return errors.New("download.pacing_base and download.pacing_spread must not be negative")
	}
	if c.Download.RetryMaxWait < c.Download.RetryInitialWait {
		return errors.New("download.retry_max_wait must be at least download.retry_initial_wait")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	return ensurePositiveMap(map[string]int{
		"breaker.failure_threshold": c.Breaker.FailureThreshold,
		"breaker.cooldown_seconds":  c.Breaker.CooldownSeconds,
		"breaker.poll_seconds":      c.Breaker.PollSeconds,
	})
}

func (c *Config) validateScan() error {
	if err := ensurePositiveMap(map[string]int{
		"scan.max_pages":     c.Scan.MaxPages,
		"scan.persist_every": c.Scan.PersistEvery,
	}); err != nil {
		return err
	}
	if c.Scan.PageDelaySeconds < 0 {
		return errors.New("scan.page_delay_seconds must not be negative")
	}
	if c.Scan.EmptyPageStop < 1 {
		return errors.New("scan.empty_page_stop must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

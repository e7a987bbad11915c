package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"` // root of the downloaded image tree
	StateDir   string `toml:"state_dir"`   // ledger, failure list, checkpoint, history
	LogDir     string `toml:"log_dir"`
}

// TMDB configures the catalog-A adapter (the enumerated discover feed).
type TMDB struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Language         string `toml:"language"`
	Region           string `toml:"region"`
	OriginalLanguage string `toml:"original_language"`
}

// MTime configures the catalog-B adapter (search + image listing).
type MTime struct {
	BaseURL      string `toml:"base_url"`
	PageSize     int    `toml:"page_size"`
	SessionToken string `toml:"session_token"` // opaque; attached verbatim to requests
	UserAgent    string `toml:"user_agent"`
}

// Matching holds the similarity thresholds. These are behavioral contract
// values; changing them changes which entities match.
type Matching struct {
	AcceptScore      float64 `toml:"accept_score"`
	SecondQueryScore float64 `toml:"second_query_score"`
	YearPenalty      float64 `toml:"year_penalty"`
	YearTolerance    int     `toml:"year_tolerance"`
}

// Download configures the worker pool, fetch retries, and pacing.
// Interval fields are seconds.
type Download struct {
	Workers          int `toml:"workers"`
	RequestTimeout   int `toml:"request_timeout"`
	RetryAttempts    int `toml:"retry_attempts"`
	RetryInitialWait int `toml:"retry_initial_wait"`
	RetryMaxWait     int `toml:"retry_max_wait"`
	PacingBase       int `toml:"pacing_base"`
	PacingSpread     int `toml:"pacing_spread"`
	PacingCap        int `toml:"pacing_cap"`
}

// Breaker configures the consecutive-failure auto-pause controller.
type Breaker struct {
	FailureThreshold int `toml:"failure_threshold"`
	CooldownSeconds  int `toml:"cooldown_seconds"`
	PollSeconds      int `toml:"poll_seconds"`
}

// Scan configures catalog-A enumeration.
type Scan struct {
	MaxPages         int `toml:"max_pages"`
	PageDelaySeconds int `toml:"page_delay_seconds"`
	PersistEvery     int `toml:"persist_every"`
	EmptyPageStop    int `toml:"empty_page_stop"`
}

// History configures the SQLite job-outcome history store.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stillsync.
type Config struct {
	Paths    Paths    `toml:"paths"`
	TMDB     TMDB     `toml:"tmdb"`
	MTime    MTime    `toml:"mtime"`
	Matching Matching `toml:"matching"`
	Download Download `toml:"download"`
	Breaker  Breaker  `toml:"breaker"`
	Scan     Scan     `toml:"scan"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stillsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file actually existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stillsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a bulk run.
// LibraryDir failure is fatal: there is nowhere to store downloads.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LibraryDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the completed-work ledger document location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "downloaded.json")
}

// FailuresPath returns the failed-downloads document location.
func (c *Config) FailuresPath() string {
	return filepath.Join(c.Paths.StateDir, "failed_downloads.json")
}

// CheckpointPath returns the enumeration checkpoint document location.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.Paths.StateDir, "scan_state.json")
}

// ListingPath returns the accumulated entity listing document location.
func (c *Config) ListingPath() string {
	return filepath.Join(c.Paths.StateDir, "movies_to_download.json")
}

// HistoryDBPath returns the SQLite job history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the bulk-operation gate lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "bulk.lock")
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Download.RequestTimeout) * time.Second
}

// PageDelay returns the pause between catalog-A page fetches.
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.Scan.PageDelaySeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	"stillsync/internal/logging"
)

// Options configures a Fetcher.
type Options struct {
	HTTPClient   *http.Client
	Attempts     uint
	InitialWait  time.Duration
	MaxWait      time.Duration
	UserAgent    string
	SessionToken string
	Logger       *slog.Logger
}

// Fetcher downloads files with exponential-backoff retries. Only transport
// errors and the rate-limit statuses (429, 502, 503) are retried; any other
// HTTP error is treated as permanent.
type Fetcher struct {
	httpClient   *http.Client
	attempts     uint
	initialWait  time.Duration
	maxWait      time.Duration
	userAgent    string
	sessionToken string
	logger       *slog.Logger
}

// New creates a Fetcher with the given options. Zero-valued options fall
// back to the production retry schedule.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		httpClient:   opts.HTTPClient,
		attempts:     opts.Attempts,
		initialWait:  opts.InitialWait,
		maxWait:      opts.MaxWait,
		userAgent:    opts.UserAgent,
		sessionToken: opts.SessionToken,
		logger:       opts.Logger,
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if f.attempts == 0 {
		f.attempts = 5
	}
	if f.initialWait <= 0 {
		f.initialWait = 10 * time.Second
	}
	if f.maxWait <= 0 {
		f.maxWait = 60 * time.Second
	}
	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	return f
}

// retryableStatus reports whether the HTTP status indicates rate limiting or
// a transient upstream failure. 502 counts: the gateway throws it when the
// image backend is saturated.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// Download fetches url and writes the body to savePath, creating parent
// directories as needed. The file appears atomically via temp-file rename,
// so an interrupted download never leaves a partial file behind.
func (f *Fetcher) Download(ctx context.Context, url, savePath string) error {
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			if attempt > 1 {
				f.logger.Debug("retrying download",
					logging.String("url", url),
					logging.Int("attempt", attempt))
			}
			return f.fetchOnce(ctx, url, savePath)
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.initialWait),
		retry.MaxDelay(f.maxWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, savePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.sessionToken != "" {
		req.Header.Set("Cookie", f.sessionToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return err
		}
		return retry.Unrecoverable(err)
	}

	return writeAtomic(savePath, resp.Body)
}

func writeAtomic(savePath string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return retry.Unrecoverable(fmt.Errorf("create directory: %w", err))
	}

	tmpPath := savePath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create temp file: %w", err))
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(tmpPath)
		// Truncated body is a transport failure, worth retrying.
		return fmt.Errorf("write body: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return retry.Unrecoverable(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpPath, savePath); err != nil {
		os.Remove(tmpPath)
		return retry.Unrecoverable(fmt.Errorf("rename temp file: %w", err))
	}
	return nil
}

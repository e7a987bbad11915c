package mtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stillsync/internal/catalog"
)

// searchMovie models one entry of the union search payload. The gateway is
// inconsistent about the year field, so it is decoded leniently.
type searchMovie struct {
	MovieID int64       `json:"movieId"`
	Name    string      `json:"name"`
	NameEn  string      `json:"nameEn"`
	Year    json.Number `json:"year"`
}

type searchResponse struct {
	Data struct {
		Movies []searchMovie `json:"movies"`
	} `json:"data"`
}

type imageInfo struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
	Type  int    `json:"type"`
}

type imageResponse struct {
	Data struct {
		ImageInfos []imageInfo `json:"imageInfos"`
	} `json:"data"`
}

// Client provides access to the MTime front gateway.
type Client struct {
	baseURL      string
	pageSize     int
	sessionToken string
	userAgent    string
	httpClient   *http.Client
}

var (
	_ catalog.Searcher    = (*Client)(nil)
	_ catalog.AssetLister = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an MTime gateway client. sessionToken may be empty; when set it
// is attached verbatim as a Cookie header on every request.
func New(baseURL string, pageSize int, sessionToken, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("mtime base url required")
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		pageSize:     pageSize,
		sessionToken: strings.TrimSpace(sessionToken),
		userAgent:    strings.TrimSpace(userAgent),
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search queries the union search endpoint for the supplied title and
// returns the movies on the first result page.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/mtime-search/search/unionSearch2")
	if err != nil {
		return nil, fmt.Errorf("parse mtime url: %w", err)
	}
	params := url.Values{}
	params.Set("keyword", query)
	params.Set("pageIndex", "1")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("searchType", "0")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, fmt.Errorf("mtime search: %w", err)
	}

	candidates := make([]catalog.Candidate, 0, len(payload.Data.Movies))
	for _, movie := range payload.Data.Movies {
		if movie.MovieID == 0 {
			continue
		}
		candidates = append(candidates, catalog.Candidate{
			ID:            movie.MovieID,
			NamePrimary:   strings.TrimSpace(movie.Name),
			NameSecondary: strings.TrimSpace(movie.NameEn),
			Year:          parseYear(movie.Year),
		})
	}
	return candidates, nil
}

// ListAssets fetches the image listing for a movie. Entries without a URL
// are dropped.
func (c *Client) ListAssets(ctx context.Context, movieID int64) ([]catalog.Asset, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	endpoint, err := url.Parse(c.baseURL + "/library/movie/image.api")
	if err != nil {
		return nil, fmt.Errorf("parse mtime url: %w", err)
	}
	params := url.Values{}
	params.Set("movieId", strconv.FormatInt(movieID, 10))
	endpoint.RawQuery = params.Encode()

	var payload imageResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, fmt.Errorf("mtime image listing: %w", err)
	}

	assets := make([]catalog.Asset, 0, len(payload.Data.ImageInfos))
	for _, info := range payload.Data.ImageInfos {
		if strings.TrimSpace(info.Image) == "" {
			continue
		}
		assets = append(assets, catalog.Asset{
			ID:       info.ID,
			URL:      info.Image,
			TypeCode: info.Type,
		})
	}
	return assets, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.sessionToken != "" {
		req.Header.Set("Cookie", c.sessionToken)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d (latency=%v)", resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseYear(value json.Number) int {
	year, err := strconv.Atoi(strings.TrimSpace(value.String()))
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

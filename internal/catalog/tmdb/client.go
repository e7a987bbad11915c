package tmdb

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

// movieResult models a single entry of the TMDB discover payload.
type movieResult struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

// discoverResponse models the paginated TMDB discover response.
type discoverResponse struct {
	Page         int           `json:"page"`
	Results      []movieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// Client provides access to the TMDB discover API.
type Client struct {
	apiKey           string
	baseURL          string
	language         string
	region           string
	originalLanguage string
	httpClient       *http.Client
}

var _ catalog.Lister = (*Client)(nil)

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

// New creates a TMDB discover client.
func New(apiKey, baseURL, language, region, originalLanguage string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:           apiKey,
		baseURL:          strings.TrimRight(baseURL, "/"),
		language:         strings.TrimSpace(language),
		region:           strings.TrimSpace(region),
		originalLanguage: strings.TrimSpace(originalLanguage),
		httpClient:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DiscoverMoviesPage fetches one page of the discover feed and returns the
// entities on it plus the total page count reported by the API.
func (c *Client) DiscoverMoviesPage(ctx context.Context, page int) ([]catalog.Entity, int, error) {
	if page < 1 {
		return nil, 0, errors.New("page must be positive")
	}
	endpoint, err := url.Parse(c.baseURL + "/discover/movie")
	if err != nil {
		return nil, 0, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("sort_by", "primary_release_date.desc")
	if c.language != "" {
		params.Set("language", c.language)
	}
	if c.region != "" {
		params.Set("region", c.region)
	}
	if c.originalLanguage != "" {
		params.Set("with_original_language", c.originalLanguage)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("tmdb discover returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("decode tmdb response: %w", err)
	}

	entities := make([]catalog.Entity, 0, len(payload.Results))
	for _, result := range payload.Results {
		entities = append(entities, catalog.Entity{
			ID:             result.ID,
			TitlePrimary:   strings.TrimSpace(result.Title),
			TitleSecondary: strings.TrimSpace(result.OriginalTitle),
			Year:           releaseYear(result.ReleaseDate),
		})
	}
	return entities, payload.TotalPages, nil
}

// releaseYear extracts the year from a TMDB release date. Malformed or
// missing dates yield 0.
func releaseYear(releaseDate string) int {
	releaseDate = strings.TrimSpace(releaseDate)
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

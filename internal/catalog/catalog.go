package catalog

import (
	"context"
	"fmt"
)

// Entity is a movie drawn from the enumerated catalog. TitlePrimary is the
// localized title, TitleSecondary the original-language title; either may be
// empty but not both.
type Entity struct {
	ID             int64  `json:"id"`
	TitlePrimary   string `json:"title"`
	TitleSecondary string `json:"original_title"`
	Year           int    `json:"year"` // 0 when the release date is unknown
}

// Title returns the best display title for the entity.
func (e Entity) Title() string {
	if e.TitlePrimary != "" {
		return e.TitlePrimary
	}
	return e.TitleSecondary
}

// Candidate is a search result from the asset-bearing catalog.
type Candidate struct {
	ID            int64
	NamePrimary   string
	NameSecondary string
	Year          int
}

// Asset is a downloadable image belonging to a matched movie. ID is zero for
// assets the remote catalog does not assign identifiers to.
type Asset struct {
	ID       int64
	URL      string
	TypeCode int
}

// RemoteKey returns the stable dedup key for the asset: the remote ID when
// one exists, otherwise the URL.
func (a Asset) RemoteKey() string {
	if a.ID > 0 {
		return fmt.Sprintf("mtime:%d", a.ID)
	}
	return "mtime_url:" + a.URL
}

// TypeLabel maps the remote image type code to a directory name. Unknown
// codes get a generic namespace rather than being dropped.
func (a Asset) TypeLabel() string {
	switch a.TypeCode {
	case 1:
		return "posters"
	case 6:
		return "stills"
	default:
		return fmt.Sprintf("type_%d", a.TypeCode)
	}
}

// Lister enumerates the driving catalog page by page.
type Lister interface {
	DiscoverMoviesPage(ctx context.Context, page int) ([]Entity, int, error)
}

// Searcher resolves a title against the asset-bearing catalog.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// AssetLister fetches the image assets for a resolved movie.
type AssetLister interface {
	ListAssets(ctx context.Context, movieID int64) ([]Asset, error)
}

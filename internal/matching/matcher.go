package matching

import (
	"context"
	"log/slog"

	"stillsync/internal/catalog"
	"stillsync/internal/logging"
)

// Policy holds the thresholds that control candidate selection. The two-tier
// design is deliberate: SecondQueryScore gates whether the alternate title is
// worth a second search, AcceptScore gates whether any result is usable.
type Policy struct {
	AcceptScore      float64
	SecondQueryScore float64
	YearPenalty      float64
	YearTolerance    int
}

// DefaultPolicy returns the tuned production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AcceptScore:      0.5,
		SecondQueryScore: 0.6,
		YearPenalty:      0.15,
		YearTolerance:    2,
	}
}

// Result reports the outcome of a resolution attempt. MatchedID is zero when
// no candidate cleared the acceptance threshold.
type Result struct {
	MatchedID int64
	Score     float64
}

// Matched reports whether a usable candidate was found.
func (r Result) Matched() bool {
	return r.MatchedID != 0
}

// Matcher resolves enumerated entities against the asset catalog.
type Matcher struct {
	searcher catalog.Searcher
	policy   Policy
	logger   *slog.Logger
}

// New creates a Matcher. A nil logger disables logging.
func New(searcher catalog.Searcher, policy Policy, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{searcher: searcher, policy: policy, logger: logger}
}

// Resolve finds the best asset-catalog candidate for the entity. The primary
// title is queried first; if that yields nothing good enough the secondary
// title is queried too and results are merged, keeping the higher score.
// A failed search counts as zero candidates, never as an error.
func (m *Matcher) Resolve(ctx context.Context, entity catalog.Entity) Result {
	target := NormalizeTitle(entity.Title())
	if target == "" {
		return Result{}
	}

	best := Result{}
	if entity.TitlePrimary != "" {
		best = m.searchPass(ctx, entity.TitlePrimary, target, entity.Year, best)
	}
	if entity.TitleSecondary != "" && (!best.Matched() || best.Score < m.policy.SecondQueryScore) {
		best = m.searchPass(ctx, entity.TitleSecondary, target, entity.Year, best)
	}

	if !best.Matched() || best.Score < m.policy.AcceptScore {
		m.logger.Debug("no acceptable candidate",
			logging.Int64(logging.FieldEntityID, entity.ID),
			logging.Float64(logging.FieldScore, best.Score))
		return Result{}
	}
	m.logger.Debug("entity resolved",
		logging.Int64(logging.FieldEntityID, entity.ID),
		logging.Int64(logging.FieldMatchedID, best.MatchedID),
		logging.Float64(logging.FieldScore, best.Score))
	return best
}

func (m *Matcher) searchPass(ctx context.Context, query, target string, year int, best Result) Result {
	candidates, err := m.searcher.Search(ctx, query)
	if err != nil {
		m.logger.Warn("candidate search failed, treating as empty",
			logging.String("query", query),
			logging.Error(err))
		return best
	}

	for _, candidate := range candidates {
		score := m.score(candidate, target, year)
		// Strictly greater: ties keep the first candidate encountered.
		if score > best.Score {
			best = Result{MatchedID: candidate.ID, Score: score}
		}
	}
	return best
}

// score computes the candidate's similarity to the target title: the max of
// its two names, minus the year penalty when both years are known and differ
// beyond the tolerance.
func (m *Matcher) score(candidate catalog.Candidate, target string, year int) float64 {
	score := 0.0
	if name := NormalizeTitle(candidate.NamePrimary); name != "" {
		score = Similarity(name, target)
	}
	if name := NormalizeTitle(candidate.NameSecondary); name != "" {
		if s := Similarity(name, target); s > score {
			score = s
		}
	}

	if year > 0 && candidate.Year > 0 {
		gap := year - candidate.Year
		if gap < 0 {
			gap = -gap
		}
		if gap > m.policy.YearTolerance {
			score -= m.policy.YearPenalty
		}
	}
	return score
}

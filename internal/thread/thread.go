// Package thread composes normalization, segmentation, scoring and tail
// trimming into the single call used by the rest of the system: pick the
// travel request out of a quoted reply chain.
package thread

import (
	"github.com/hyperifyio/travelmail/internal/anonymize"
	"github.com/hyperifyio/travelmail/internal/extract"
	"github.com/hyperifyio/travelmail/internal/lexicon"
	"github.com/hyperifyio/travelmail/internal/segment"
	selecter "github.com/hyperifyio/travelmail/internal/select"
)

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	norm    extract.Normalizer
	weights selecter.Weights
	seg     *segment.Segmenter
	scorer  *selecter.Scorer
	trimmer *selecter.Trimmer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNormalizer replaces the default HTML/plain normalizer.
func WithNormalizer(n extract.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.norm = n
		}
	}
}

// WithWeights replaces the default score weights.
func WithWeights(w selecter.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// New builds an Engine from a private copy of tables.
func New(tables lexicon.Tables, opts ...Option) *Engine {
	t := tables.Clone()
	e := &Engine{norm: extract.DefaultNormalizer{}, weights: selecter.DefaultWeights()}
	for _, o := range opts {
		o(e)
	}
	e.seg = segment.New(t.Markers)
	e.scorer = selecter.NewScorer(t, e.weights)
	e.trimmer = selecter.NewTrimmer(t.Legal)
	return e
}

// Default returns an Engine over the built-in tables.
func Default() *Engine { return New(lexicon.Default()) }

// ExtractBestSegment returns the trimmed text of the most travel-relevant
// segment of raw, or "" when the body has no usable text.
func (e *Engine) ExtractBestSegment(raw extract.RawBody) string {
	return e.Analyze(raw).Final
}

// ScoredSegment is one segment with its score and keyword hit counts.
type ScoredSegment struct {
	segment.Segment
	Score      float64 `json:"score"`
	TravelHits int     `json:"travel_hits"`
	LegalHits  int     `json:"legal_hits"`
}

// Analysis exposes every intermediate result of one extraction.
type Analysis struct {
	Normalized string          `json:"normalized"`
	Segments   []ScoredSegment `json:"segments"`
	// Best indexes Segments, -1 when there is none.
	Best  int    `json:"best"`
	Final string `json:"final"`
}

// Analyze runs the pipeline and keeps the intermediate results.
func (e *Engine) Analyze(raw extract.RawBody) Analysis {
	a := Analysis{Best: -1}
	a.Normalized = e.norm.Normalize(raw)
	segs := e.seg.Segment(a.Normalized)
	if len(segs) == 0 {
		return a
	}
	scores := e.scorer.Rank(segs)
	a.Segments = make([]ScoredSegment, len(segs))
	for i, s := range segs {
		travel, legal := e.scorer.Hits(s.Text)
		a.Segments[i] = ScoredSegment{Segment: s, Score: scores[i], TravelHits: travel, LegalHits: legal}
	}
	a.Best = selecter.Best(scores)
	a.Final = e.trimmer.TrimTail(segs[a.Best].Text)
	return a
}

// Anonymize masks emails, phone numbers and PNR-like codes in text.
func Anonymize(text string) string { return anonymize.Anonymize(text) }

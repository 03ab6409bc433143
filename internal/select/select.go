package selecter

import (
	"strings"

	"github.com/hyperifyio/travelmail/internal/lexicon"
	"github.com/hyperifyio/travelmail/internal/segment"
)

// Weights configures the relevance score.
type Weights struct {
	Travel float64
	Legal  float64
	// ShortPenalty is subtracted once from segments shorter than ShortLen
	// runes. Zero ShortLen disables the penalty.
	ShortPenalty float64
	ShortLen     int
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{Travel: 1.0, Legal: 0.7, ShortPenalty: 1.0, ShortLen: 40}
}

// Scorer rates segments by travel-request relevance. It is immutable after
// NewScorer and safe for concurrent use.
type Scorer struct {
	travel [][]rune
	legal  [][]rune
	w      Weights
}

// NewScorer folds the keyword tables once. Blank keywords are dropped.
func NewScorer(t lexicon.Tables, w Weights) *Scorer {
	return &Scorer{travel: foldNonBlank(t.Travel), legal: foldNonBlank(t.Legal), w: w}
}

func foldNonBlank(list []string) [][]rune {
	out := make([][]rune, 0, len(list))
	for _, s := range list {
		if s == "" {
			continue
		}
		out = append(out, lexicon.Fold(s))
	}
	return out
}

// Hits counts how many travel and legal keywords occur in text. Each keyword
// counts at most once regardless of how often it repeats.
func (s *Scorer) Hits(text string) (travel, legal int) {
	folded := lexicon.Fold(text)
	for _, k := range s.travel {
		if lexicon.Contains(folded, k) {
			travel++
		}
	}
	for _, k := range s.legal {
		if lexicon.Contains(folded, k) {
			legal++
		}
	}
	return travel, legal
}

// Score returns travel*hits - legal*hits - shortPenalty.
func (s *Scorer) Score(text string) float64 {
	travel, legal := s.Hits(text)
	score := s.w.Travel*float64(travel) - s.w.Legal*float64(legal)
	if len([]rune(text)) < s.w.ShortLen {
		score -= s.w.ShortPenalty
	}
	return score
}

// Rank scores every segment in order.
func (s *Scorer) Rank(segs []segment.Segment) []float64 {
	out := make([]float64, len(segs))
	for i, sg := range segs {
		out[i] = s.Score(sg.Text)
	}
	return out
}

// Best returns the index of the first strictly greatest score, or -1 for an
// empty slice. A later score must beat the current best to replace it.
func Best(scores []float64) int {
	best := -1
	for i, sc := range scores {
		if best < 0 || sc > scores[best] {
			best = i
		}
	}
	return best
}

// Select picks the highest scoring segment, keeping the earliest on ties.
// ok is false when segs is empty.
func (s *Scorer) Select(segs []segment.Segment) (segment.Segment, bool) {
	i := Best(s.Rank(segs))
	if i < 0 {
		return segment.Segment{}, false
	}
	return segs[i], true
}

// MinTrimOffset is the floor below which a legal keyword hit is treated as a
// false positive and the segment is kept whole.
const MinTrimOffset = 50

// Trimmer cuts a trailing disclaimer block off a segment.
type Trimmer struct {
	legal [][]rune
	floor int
}

// NewTrimmer builds a Trimmer over the legal keyword list.
func NewTrimmer(legal []string) *Trimmer {
	return &Trimmer{legal: foldNonBlank(legal), floor: MinTrimOffset}
}

// TailOffset returns the earliest rune offset at which any legal keyword
// starts, or -1.
func (t *Trimmer) TailOffset(text string) int {
	folded := lexicon.Fold(text)
	earliest := -1
	for _, k := range t.legal {
		if i := lexicon.Index(folded, k, 0); i >= 0 && (earliest < 0 || i < earliest) {
			earliest = i
		}
	}
	return earliest
}

// TrimTail truncates text at the earliest legal keyword when that offset is
// strictly between the floor and the end of text. The result is trimmed and
// never longer than the input.
func (t *Trimmer) TrimTail(text string) string {
	off := t.TailOffset(text)
	runes := []rune(text)
	if off > t.floor && off < len(runes) {
		return strings.TrimSpace(string(runes[:off]))
	}
	return strings.TrimSpace(text)
}

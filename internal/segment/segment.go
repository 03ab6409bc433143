// Package segment splits a normalized mail thread into the individual
// messages it quotes. Boundaries come from reply/forward markers only; an
// in-body "From:" that is not a real header still splits, and the scorer is
// left to sort that out.
package segment

import (
	"sort"
	"strings"

	"github.com/hyperifyio/travelmail/internal/lexicon"
)

// Segment is one candidate message. Start and End are rune offsets of the
// untrimmed span in the text passed to Segment; Text is that span trimmed.
type Segment struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Segmenter holds the folded marker set. It is immutable after New and safe
// for concurrent use.
type Segmenter struct {
	markers [][]rune
}

// New builds a Segmenter for the given markers. Blank markers are ignored.
func New(markers []string) *Segmenter {
	s := &Segmenter{}
	for _, m := range markers {
		if m == "" {
			continue
		}
		s.markers = append(s.markers, lexicon.Fold(m))
	}
	return s
}

// Boundaries returns the sorted, deduplicated start offsets of every span:
// 0 plus each occurrence of each marker. Offsets are rune offsets into text.
// Segment merges a marker-only interval into the next one, so a returned
// segment can cover more than one interval of this partition.
func (s *Segmenter) Boundaries(text string) []int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	folded := lexicon.Fold(text)
	return s.boundaries(folded)
}

func (s *Segmenter) boundaries(folded []rune) []int {
	seen := map[int]struct{}{0: {}}
	for _, m := range s.markers {
		from := 0
		for {
			idx := lexicon.Index(folded, m, from)
			if idx < 0 {
				break
			}
			seen[idx] = struct{}{}
			from = idx + len(m)
		}
	}
	out := make([]int, 0, len(seen))
	for off := range seen {
		if off >= 0 && off < len(folded) {
			out = append(out, off)
		}
	}
	sort.Ints(out)
	return out
}

// Segment splits text into ordered, non-empty segments. Empty or
// whitespace-only input yields nil; any other input yields at least one
// segment.
//
// A span that holds nothing but a marker (the "-----Original Message-----"
// line directly above a "From:" header) is merged into the span after it,
// so a separator and the header it introduces form one segment.
func (s *Segmenter) Segment(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	t := strings.ReplaceAll(text, "\r\n", "\n")
	runes := []rune(t)
	offsets := s.boundaries(lexicon.Fold(t))

	segments := make([]Segment, 0, len(offsets))
	pending := -1
	for i, start := range offsets {
		end := len(runes)
		last := i+1 == len(offsets)
		if !last {
			end = offsets[i+1]
		}
		seg := strings.TrimSpace(string(runes[start:end]))
		if seg == "" {
			continue
		}
		if !last && s.isMarkerOnly(seg) {
			if pending < 0 {
				pending = start
			}
			continue
		}
		if pending >= 0 {
			start = pending
			seg = strings.TrimSpace(string(runes[start:end]))
			pending = -1
		}
		segments = append(segments, Segment{Start: start, End: end, Text: seg})
	}
	if pending >= 0 {
		seg := strings.TrimSpace(string(runes[pending:]))
		segments = append(segments, Segment{Start: pending, End: len(runes), Text: seg})
	}

	if len(segments) == 0 {
		whole := strings.TrimSpace(text)
		return []Segment{{Start: 0, End: len(runes), Text: whole}}
	}
	return segments
}

func (s *Segmenter) isMarkerOnly(seg string) bool {
	folded := string(lexicon.Fold(seg))
	for _, m := range s.markers {
		if folded == strings.TrimSpace(string(m)) {
			return true
		}
	}
	return false
}

// Texts returns just the trimmed text of each segment.
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

package lexicon

import "unicode"

// Fold lower-cases s rune by rune. Unlike strings.ToLower the result has
// exactly one rune per input rune, so offsets found in the folded text are
// valid rune offsets into the original ("İ" folds to "i", not "i̇").
func Fold(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// FoldAll folds every entry of list, dropping nothing.
func FoldAll(list []string) [][]rune {
	out := make([][]rune, len(list))
	for i, s := range list {
		out[i] = Fold(s)
	}
	return out
}

// Index returns the first rune offset >= from at which needle occurs in
// hay, or -1.
func Index(hay, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := from; i+n <= len(hay); i++ {
		if hay[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < n; j++ {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Contains reports whether needle occurs anywhere in hay.
func Contains(hay, needle []rune) bool {
	return Index(hay, needle, 0) >= 0
}

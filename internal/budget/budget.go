package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the estimate used for prompt sizing. Turkish text
// tokenizes worse than English, so the estimate counts runes, not bytes.
const CharsPerToken = 4

// EstimateTokensFromChars converts a rune count into a token estimate,
// rounding up. The result is at least 1 when chars > 0.
func EstimateTokensFromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return int(math.Ceil(float64(chars) / CharsPerToken))
}

// EstimateTokens returns the estimated token count of s.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(utf8.RuneCountInString(s))
}

// EstimatePromptTokens estimates a chat prompt made of a system and a user
// message plus per-message framing overhead.
func EstimatePromptTokens(system, user string) int {
	const perMessage = 4
	return EstimateTokens(system) + EstimateTokens(user) + 2*perMessage
}

// ModelContextTokens returns the context window of a model name. Unknown
// names fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// RemainingContext is the input budget left after reserving output tokens.
// Never negative.
func RemainingContext(modelName string, reservedForOutput, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitsInContext reports whether the prompt fits while reserving output
// tokens and headroom.
func FitsInContext(modelName string, reservedForOutput, promptTokens int) bool {
	return RemainingContext(modelName, reservedForOutput+HeadroomTokens(modelName), promptTokens) > 0
}

// HeadroomTokens is max(5% of the context, 512), subtracted to absorb
// tokenizer error.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// TruncateToTokens cuts s to roughly maxTokens tokens on a rune boundary,
// preferring the last line break or space in the final tenth of the cut.
func TruncateToTokens(s string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", s != ""
	}
	limit := maxTokens * CharsPerToken
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	cut := limit
	for i := limit; i > limit-limit/10 && i > 0; i-- {
		if r[i-1] == '\n' || r[i-1] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(r[:cut])), true
}

var suffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
}

// knownModelMax holds approximate context sizes for common models.
var knownModelMax = map[string]int{
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4.1":       1_000_000,
	"gpt-4.1-mini":  1_000_000,
	"gpt-4-turbo":   128_000,
	"gpt-3.5-turbo": 16_384,

	"llama-3":   8_192,
	"llama-3.1": 128_000,
	"qwen2.5":   32_768,

	// Local seq2seq extractors trained on the exported datasets.
	"mt5-small": 512,
	"mt5-base":  512,
	"t5-small":  256,
	"t5-base":   256,
}

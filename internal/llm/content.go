package llm

import (
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	fencedFinalRe = regexp.MustCompile("(?s)```final\r?\n(.*?)```")
	xmlFinalRe    = regexp.MustCompile("(?s)<final>(.*?)</final>")
	codeFenceRe   = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*\r?\n(.*?)\r?\n?```$")
)

// FinalContent returns the answer text of the first choice. Reasoning
// models that wrap their answer in a ```final block or <final> tag are
// unwrapped; otherwise the whole content is returned trimmed.
func FinalContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	content := resp.Choices[0].Message.Content
	if m := fencedFinalRe.FindStringSubmatch(content); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	if m := xmlFinalRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// StripCodeFence removes one surrounding Markdown code fence such as
// ```json ... ```. Text without a fence is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ContentForLogging returns a short, log-safe view of a response: the
// final answer only, capped at max runes. Raw reasoning is never returned.
func ContentForLogging(resp openai.ChatCompletionResponse, max int) string {
	s := FinalContent(resp)
	if r := []rune(s); max > 0 && len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

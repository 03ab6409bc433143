package llm

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func respWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
	}}}
}

func TestFinalContent(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain", "  {\"requests\":[]}  ", `{"requests":[]}`},
		{"fenced final", "thinking...\n```final\n{\"requests\":[]}\n```\n", `{"requests":[]}`},
		{"xml final", "<analysis>hmm</analysis>\n<final>{}</final>", "{}"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FinalContent(respWith(c.in)); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
	if FinalContent(openai.ChatCompletionResponse{}) != "" {
		t.Fatal("no choices must yield empty content")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```json\r\n{\"a\":1}\r\n```", `{"a":1}`},
	}
	for _, c := range cases {
		if got := StripCodeFence(c.in); got != c.want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestContentForLogging_Caps(t *testing.T) {
	got := ContentForLogging(respWith("<analysis>secret</analysis><final>abcdefgh</final>"), 4)
	if got != "abcd..." {
		t.Fatalf("got %q", got)
	}
}

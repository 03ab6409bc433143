// Command openai-stub serves a minimal OpenAI-compatible API that answers
// every chat completion with a canned travel request, for offline runs of
// travelmail label.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const (
	flightAnswer   = `{"requests":[{"type":"flight","flight":{"trip_type":"round_trip","legs":[{"from":"IST","to":"ADB","date":{"type":"unspecified"}},{"from":"ADB","to":"IST","date":{"type":"unspecified"}}],"pax":{"adult":1,"child":0,"infant":0},"baggage":{}}}]}`
	hotelAnswer    = `{"requests":[{"type":"hotel","hotel":{"city":"Ankara","nights":2,"rooms":1,"pax":{"adult":1,"child":0}}}]}`
	transferAnswer = `{"requests":[{"type":"transfer","transfer":{"direction":"arrival","pax":{"adult":1,"child":0,"infant":0}}}]}`
)

// cannedAnswer picks a request type from keywords in the user message.
func cannedAnswer(user string) string {
	u := strings.ToLower(user)
	switch {
	case strings.Contains(u, "transfer"):
		return transferAnswer
	case strings.Contains(u, "otel"), strings.Contains(u, "hotel"):
		return hotelAnswer
	default:
		return flightAnswer
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		user := ""
		for _, m := range req.Messages {
			if m.Role == "user" {
				user = m.Content
			}
		}
		if strings.TrimSpace(user) == "" {
			http.Error(w, "missing user message", http.StatusBadRequest)
			return
		}
		content := cannedAnswer(user)
		log.Debug().Str("model", req.Model).Int("user_chars", len(user)).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "stub-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

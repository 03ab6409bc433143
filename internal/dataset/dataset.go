// Package dataset converts labeled extraction records into fine-tuning
// corpora: an instruction/output set and a chat set for sequence-to-JSON
// models, and a flat slot set for small text-to-text models.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/travelmail/internal/budget"
	"github.com/hyperifyio/travelmail/internal/label"
)

// Kind names an output format.
type Kind string

const (
	KindIO    Kind = "io"
	KindChat  Kind = "chat"
	KindSlots Kind = "slots"
)

// Kinds lists every format in output order.
var Kinds = []Kind{KindIO, KindChat, KindSlots}

// FileName is the conventional output file for k.
func (k Kind) FileName() string {
	return "finetune_" + string(k) + "_dataset.jsonl"
}

// ParseKind accepts io, chat or slots.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown dataset kind %q (want io, chat or slots)", s)
}

// Token limits of the downstream trainers. Longer examples are still
// written but counted as over budget.
type Limits struct {
	InputTokens  int
	TargetTokens int
}

// DefaultLimits returns the trainer limits for k.
func DefaultLimits(k Kind) Limits {
	if k == KindSlots {
		return Limits{InputTokens: 256, TargetTokens: 256}
	}
	return Limits{InputTokens: 512, TargetTokens: 256}
}

// Prompt text baked into the training examples. The fine-tuned models are
// served with exactly these strings, so they stay in Turkish.
const (
	IOInstruction = "Aşağıda bir seyahat talebi e-postasının gövdesi var. " +
		"Bu metinden sadece geçerli JSON formatında flight/hotel/transfer " +
		"taleplerini çıkar. JSON dışında hiçbir şey yazma."
	ChatSystemPrompt = "Sen kurumsal seyahat taleplerini anlayan bir asistansın. " +
		"Görevin, verilen e-posta gövdesinden uçuş / otel / transfer " +
		"taleplerini standart JSON şemasına uygun olarak çıkarmaktır. " +
		"Sadece geçerli JSON döndür."
	ChatUserPrefix = "Aşağıdaki e-posta gövdesinden seyahat taleplerini JSON formatında çıkar:\n\n"
)

// IOExample is one instruction/output pair.
type IOExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ChatMessage is one turn of a chat example.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatExample is a system/user/assistant conversation.
type ChatExample struct {
	Messages []ChatMessage `json:"messages"`
}

// SlotExample pairs the email text with its slot lines.
type SlotExample struct {
	Input  string `json:"input"`
	Target string `json:"target"`
}

// Stats counts what Build did.
type Stats struct {
	Kind       Kind `json:"kind"`
	Read       int  `json:"read"`
	Written    int  `json:"written"`
	Skipped    int  `json:"skipped"`
	Invalid    int  `json:"invalid"`
	OverBudget int  `json:"over_budget"`
}

// Build reads labeled records from r and writes examples of kind k to w.
func Build(r io.Reader, w io.Writer, k Kind, lim Limits) (Stats, error) {
	st := Stats{Kind: k}
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	invalid, err := label.ReadRecords(r, func(rec label.Record) error {
		st.Read++
		ex, input, target, ok := convert(k, rec)
		if !ok {
			st.Skipped++
			return nil
		}
		if budget.EstimateTokens(input) > lim.InputTokens || budget.EstimateTokens(target) > lim.TargetTokens {
			st.OverBudget++
			log.Debug().Str("mail_id", rec.MailID).Str("kind", string(k)).Msg("example exceeds trainer token limit")
		}
		if err := enc.Encode(ex); err != nil {
			return err
		}
		st.Written++
		return nil
	})
	st.Invalid = invalid
	if err != nil {
		return st, err
	}
	return st, bw.Flush()
}

func convert(k Kind, rec label.Record) (ex any, input, target string, ok bool) {
	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return nil, "", "", false
	}
	switch k {
	case KindIO, KindChat:
		out, ok := compactLabel(rec.Label)
		if !ok {
			return nil, "", "", false
		}
		if k == KindIO {
			in := IOInstruction + "\n\nE-posta gövdesi:\n" + text
			return IOExample{Input: in, Output: out}, in, out, true
		}
		user := ChatUserPrefix + text
		return ChatExample{Messages: []ChatMessage{
			{Role: openai.ChatMessageRoleSystem, Content: ChatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
			{Role: openai.ChatMessageRoleAssistant, Content: out},
		}}, ChatSystemPrompt + user, out, true
	case KindSlots:
		if rec.ReviewNeeded {
			return nil, "", "", false
		}
		t, ok := SlotTarget(rec.Label)
		if !ok {
			return nil, "", "", false
		}
		return SlotExample{Input: text, Target: t}, text, t, true
	}
	return nil, "", "", false
}

// compactLabel returns the label as compact JSON, or false when the label
// is missing or an empty object, list or string.
func compactLabel(raw json.RawMessage) (string, bool) {
	v, ok := decode(raw)
	if !ok || !truthy(v) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

func decode(raw json.RawMessage) (any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

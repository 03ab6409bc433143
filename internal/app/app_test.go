package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/travelmail/internal/dataset"
	"github.com/hyperifyio/travelmail/internal/extract"
	"github.com/hyperifyio/travelmail/internal/label"
	"github.com/hyperifyio/travelmail/internal/mail"
)

const threadBody = "Merhaba,\n12 Haziran İstanbul - İzmir gidiş dönüş uçuş ve 2 gece otel rezervasyonu rica ederim.\nTeşekkürler\n\n" +
	"From: Ops <ops@client.com>\nSent: Monday\nSubject: RE: toplantı\n\nToplantı notlarını ekte bulabilirsiniz."

const flightLabel = `{"requests":[{"type":"flight","flight":{"trip_type":"round_trip","legs":[{"from":"IST","to":"ADB","date":{"type":"exact","exact":"2025-06-12"}}],"pax":{"adult":1,"child":0,"infant":0},"baggage":{}}}]}`

type cannedLLM struct {
	calls   int32
	content string
}

func (c *cannedLLM) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	atomic.AddInt32(&c.calls, 1)
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
	}}}, nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "train")
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.Workers = 2
	return cfg
}

func TestSegment_PlainText(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := a.Segment(strings.NewReader(threadBody), &out, SegmentOptions{}); err != nil {
		t.Fatalf("Segment: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "Merhaba,") || strings.Contains(got, "Toplantı") {
		t.Fatalf("got %q", got)
	}
}

func TestSegment_HTMLAnonymizedExplain(t *testing.T) {
	a, _ := New(DefaultConfig())
	html := "<div><p>Ankara otel rezervasyonu rica ederim, 2 gece.</p><p>Tel: +90 532 111 22 33</p></div>"
	var out bytes.Buffer
	if err := a.Segment(strings.NewReader(html), &out, SegmentOptions{HTML: true, Anonymize: true, Explain: true}); err != nil {
		t.Fatalf("Segment: %v", err)
	}
	var an struct {
		Segments []json.RawMessage `json:"segments"`
		Best     int               `json:"best"`
		Final    string            `json:"final"`
	}
	if err := json.Unmarshal(out.Bytes(), &an); err != nil {
		t.Fatalf("explain output is not JSON: %v", err)
	}
	if an.Best != 0 || len(an.Segments) != 1 || !strings.Contains(an.Final, "PHONE_MASKED") || strings.Contains(out.String(), "532") {
		t.Fatalf("unexpected analysis: %s", out.String())
	}
}

func TestSegment_NoUsableText(t *testing.T) {
	a, _ := New(DefaultConfig())
	var out bytes.Buffer
	err := a.Segment(strings.NewReader("  \u200b\u00a0  \n"), &out, SegmentOptions{})
	if !errors.Is(err, ErrNoSegment) {
		t.Fatalf("got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing must be written, got %q", out.String())
	}
}

func TestNew_LexiconFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "lexicon.yaml", "markers: [\"\\n--- alıntı ---\"]\ntravel: [otel]\nlegal: [gizlidir]\n")
	cfg := DefaultConfig()
	cfg.LexiconFile = p
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := a.Segment(strings.NewReader("Selam\n--- alıntı ---\nOtel lazım, iki gece kalacağız."), &out, SegmentOptions{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Otel lazım") || strings.Contains(out.String(), "Selam") {
		t.Fatalf("custom marker not used: %q", out.String())
	}
	cfg.LexiconFile = filepath.Join(dir, "missing.yaml")
	if _, err := New(cfg); err == nil {
		t.Fatal("missing lexicon file must fail")
	}
}

func writeRaw(t *testing.T, cfg Config, emails ...mail.RawEmail) {
	t.Helper()
	if err := mail.AppendJSONL(cfg.rawPath(), emails); err != nil {
		t.Fatal(err)
	}
}

func rawEmail(id, subject, body string) mail.RawEmail {
	return mail.Simplify(mail.Message{
		ID:           id,
		Subject:      subject,
		ToRecipients: []mail.Recipient{{EmailAddress: mail.Address{Address: "booking@julesverne.com.tr"}}},
		Body:         extract.RawBody{ContentType: extract.ContentTypeText, Content: body},
	})
}

func TestLabelDatasetReview_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeRaw(t, cfg,
		rawEmail("m1", "İzmir seyahati", threadBody),
		rawEmail("m2", "RE: İzmir seyahati", threadBody),
		rawEmail("m3", "Transfer", "Havalimanından otele transfer rica ederim, 3 kişiyiz, saat 14:30."),
	)
	llmStub := &cannedLLM{content: "```json\n" + flightLabel + "\n```"}
	a, err := New(cfg, WithLLMClient(llmStub))
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	st, err := a.Label(context.Background())
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if st.Labeled != 2 || st.Skipped[label.SkipReply] != 1 || st.ReviewNeeded != 0 {
		t.Fatalf("stats: %+v", st)
	}
	if _, err := os.Stat(label.SidecarPath(cfg.labeledPath())); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}

	// A second run is served from the cache and appends.
	if _, err := a.Label(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&llmStub.calls); n != 2 {
		t.Fatalf("model calls = %d, want 2", n)
	}
	b, _ := os.ReadFile(cfg.labeledPath())
	if lines := strings.Count(string(b), "\n"); lines != 4 {
		t.Fatalf("labeled file has %d lines, want 4", lines)
	}

	stats, err := a.Dataset(nil)
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("stats: %+v", stats)
	}
	for _, k := range dataset.Kinds {
		if _, err := os.Stat(filepath.Join(cfg.datasetDir(), k.FileName())); err != nil {
			t.Fatalf("%s dataset missing: %v", k, err)
		}
	}
	if stats[2].Kind != dataset.KindSlots || stats[2].Written != 4 {
		t.Fatalf("slots: %+v", stats[2])
	}

	n, err := a.Review()
	if err != nil || n != 0 {
		t.Fatalf("Review: n=%d err=%v", n, err)
	}
	if _, err := os.Stat(cfg.reviewPath()); err != nil {
		t.Fatalf("review sheet missing: %v", err)
	}
}

func TestLabel_ReviewRecordsAndEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheDir = ""
	writeRaw(t, cfg, rawEmail("m1", "Talep", threadBody))
	a, _ := New(cfg, WithLLMClient(&cannedLLM{content: `{"requests":[{"type":"cruise"}]}`}))
	st, err := a.Label(context.Background())
	if err != nil || st.ReviewNeeded != 1 {
		t.Fatalf("st=%+v err=%v", st, err)
	}
	if n, err := a.Review(); err != nil || n != 1 {
		t.Fatalf("Review: n=%d err=%v", n, err)
	}

	empty := testConfig(t)
	if err := os.MkdirAll(empty.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty.rawPath(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	b, _ := New(empty, WithLLMClient(&cannedLLM{}))
	if _, err := b.Label(context.Background()); !errors.Is(err, ErrNoInput) {
		t.Fatalf("want ErrNoInput, got %v", err)
	}
}

func TestFetch_WritesRawEmails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1.0/users/u1/mailFolders/Inbox/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"id":"a","subject":"Otel","body":{"contentType":"html","content":"<p>otel</p>"},
			"from":{"emailAddress":{"name":"A","address":"a@client.com"}},
			"toRecipients":[{"emailAddress":{"address":"booking@julesverne.com.tr"}}],"receivedDateTime":"2025-05-01T10:00:00Z"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t)
	cfg.ClientID, cfg.ClientSecret, cfg.UserID = "c", "s", "u1"
	cfg.GraphBaseURL, cfg.GraphTokenURL = srv.URL+"/v1.0", srv.URL+"/token"
	cfg.MailFolder = "inbox"
	a, _ := New(cfg)
	n, err := a.Fetch(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Fetch: n=%d err=%v", n, err)
	}
	var got []mail.RawEmail
	f, err := os.Open(cfg.rawPath())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := mail.ReadJSONL(f, func(_ int, e mail.RawEmail) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].From.Address != "a@client.com" || got[0].Body.Content != "<p>otel</p>" {
		t.Fatalf("got %+v", got)
	}
}

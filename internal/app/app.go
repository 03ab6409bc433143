// Package app wires configuration, the mailbox client, the extraction
// engine and the model into the travelmail commands.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/travelmail/internal/anonymize"
	"github.com/hyperifyio/travelmail/internal/cache"
	"github.com/hyperifyio/travelmail/internal/dataset"
	"github.com/hyperifyio/travelmail/internal/extract"
	"github.com/hyperifyio/travelmail/internal/label"
	"github.com/hyperifyio/travelmail/internal/lexicon"
	"github.com/hyperifyio/travelmail/internal/llm"
	"github.com/hyperifyio/travelmail/internal/mail"
	"github.com/hyperifyio/travelmail/internal/review"
	"github.com/hyperifyio/travelmail/internal/thread"
)

// Command names.
const (
	CmdFetch   = "fetch"
	CmdLabel   = "label"
	CmdDataset = "dataset"
	CmdSegment = "segment"
	CmdReview  = "review"
)

var (
	// ErrNoSegment is returned by Segment when the body has no usable text.
	ErrNoSegment = errors.New("no usable segment")
	// ErrNoInput is returned by Label when the raw email file has no lines.
	ErrNoInput = errors.New("no input messages")
)

// App runs one command against a Config.
type App struct {
	cfg    Config
	engine *thread.Engine
	http   *http.Client
	llm    llm.Client
	now    func() time.Time
}

// Option customizes an App.
type Option func(*App)

// WithLLMClient replaces the OpenAI-compatible client.
func WithLLMClient(c llm.Client) Option {
	return func(a *App) { a.llm = c }
}

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		if c != nil {
			a.http = c
		}
	}
}

// New loads the keyword tables and builds the extraction engine.
func New(cfg Config, opts ...Option) (*App, error) {
	tables := lexicon.Default()
	if p := strings.TrimSpace(cfg.LexiconFile); p != "" {
		t, err := lexicon.LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		tables = t
		log.Info().Str("file", p).Int("markers", len(t.Markers)).Int("travel", len(t.Travel)).Int("legal", len(t.Legal)).Msg("lexicon loaded")
	}
	a := &App{cfg: cfg, engine: thread.New(tables), http: newHTTPClient(0), now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Fetch downloads the configured folder and appends it to the raw file.
func (a *App) Fetch(ctx context.Context) (int, error) {
	gc, err := mail.NewGraphClient(ctx, mail.GraphConfig{
		TenantID:          a.cfg.TenantID,
		ClientID:          a.cfg.ClientID,
		ClientSecret:      a.cfg.ClientSecret,
		UserID:            a.cfg.UserID,
		BaseURL:           a.cfg.GraphBaseURL,
		TokenURL:          a.cfg.GraphTokenURL,
		RequestsPerSecond: a.cfg.GraphRequestsPerS,
		HTTPClient:        a.http,
	})
	if err != nil {
		return 0, fmt.Errorf("graph client: %w", err)
	}
	msgs, err := gc.FetchFolder(ctx, a.cfg.MailFolder, a.cfg.MaxEmails)
	if err != nil {
		return 0, err
	}
	raws := make([]mail.RawEmail, 0, len(msgs))
	for _, m := range msgs {
		raws = append(raws, mail.Simplify(m))
	}
	path := a.cfg.rawPath()
	if err := mail.AppendJSONL(path, raws); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Int("count", len(raws)).Str("folder", a.cfg.MailFolder).Str("path", path).Msg("emails saved")
	return len(raws), nil
}

// prepareCache applies the invalidation settings and returns the LLM
// cache, or nil when caching is off.
func (a *App) prepareCache() *cache.LLMCache {
	dir := strings.TrimSpace(a.cfg.CacheDir)
	if dir == "" {
		return nil
	}
	if a.cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			log.Warn().Err(err).Msg("cache clear failed")
		}
	}
	if a.cfg.CacheMaxAge > 0 {
		if n, err := cache.PurgeLLMCacheByAge(dir, a.cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("purged stale cache entries")
		}
	}
	if a.cfg.CacheMaxBytes > 0 || a.cfg.CacheMaxCount > 0 {
		if n, err := cache.EnforceLLMCacheLimits(dir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxCount); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Info().Int("evicted", n).Msg("evicted cache entries")
		}
	}
	return &cache.LLMCache{Dir: dir, StrictPerms: a.cfg.CacheStrictPerms}
}

// client returns the model client, building the OpenAI-compatible one on
// first use. The model list preflight is best-effort.
func (a *App) client(ctx context.Context) llm.Client {
	if a.llm != nil {
		return a.llm
	}
	p := llm.NewOpenAI(a.cfg.LLMBaseURL, a.cfg.LLMAPIKey, a.http)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if models, err := p.ListModels(pctx); err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	} else {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	}
	a.llm = p
	return p
}

// Label extracts a request label for every eligible raw email and appends
// the records to the labeled file.
func (a *App) Label(ctx context.Context) (label.Stats, error) {
	inPath, outPath := a.cfg.rawPath(), a.cfg.labeledPath()
	in, err := os.Open(inPath)
	if err != nil {
		return label.Stats{}, fmt.Errorf("raw emails: %w", err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return label.Stats{}, fmt.Errorf("mkdir: %w", err)
	}
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return label.Stats{}, err
	}

	llmCache := a.prepareCache()
	b := &label.Batch{
		Engine: a.engine,
		Extractor: &label.LLMExtractor{
			Client:               a.client(ctx),
			Model:                a.cfg.LLMModel,
			Cache:                llmCache,
			CacheOnly:            a.cfg.LLMCacheOnly,
			ReservedOutputTokens: a.cfg.ReservedOutputTokens,
			JSONMode:             a.cfg.LLMJSONMode,
		},
		Filter:    label.Filter{Domain: a.cfg.CompanyDomain, Groups: a.cfg.MailGroups, MinChars: a.cfg.MinChars},
		Anonymize: a.cfg.Anonymize,
		Workers:   a.cfg.Workers,
	}
	st, runErr := b.Run(ctx, in, out)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}
	log.Info().
		Int("lines", st.Lines).
		Int("labeled", st.Labeled).
		Int("review_needed", st.ReviewNeeded).
		Int("errors", st.Errors).
		Int("invalid_lines", st.InvalidLines).
		Str("path", outPath).
		Msg("labeling finished")
	if st.Labeled > 0 {
		meta := label.ManifestMeta{
			Model:       a.cfg.LLMModel,
			LLMBaseURL:  a.cfg.LLMBaseURL,
			Input:       inPath,
			Anonymized:  a.cfg.Anonymize,
			LLMCache:    llmCache != nil,
			Stats:       st,
			GeneratedAt: a.now().UTC(),
		}
		if err := label.WriteManifest(label.SidecarPath(outPath), meta); err != nil {
			log.Warn().Err(err).Msg("manifest write failed")
		}
	}
	if runErr != nil {
		return st, runErr
	}
	if st.Lines == 0 && st.InvalidLines == 0 {
		return st, fmt.Errorf("%w: %s is empty", ErrNoInput, inPath)
	}
	return st, nil
}

// Dataset writes one fine-tuning file per kind from the labeled records.
func (a *App) Dataset(kinds []dataset.Kind) ([]dataset.Stats, error) {
	if len(kinds) == 0 {
		kinds = dataset.Kinds
	}
	dir := a.cfg.datasetDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	var all []dataset.Stats
	for _, k := range kinds {
		st, err := a.buildDataset(k, filepath.Join(dir, k.FileName()))
		if err != nil {
			return all, fmt.Errorf("%s dataset: %w", k, err)
		}
		all = append(all, st)
	}
	return all, nil
}

func (a *App) buildDataset(k dataset.Kind, outPath string) (dataset.Stats, error) {
	in, err := os.Open(a.cfg.labeledPath())
	if err != nil {
		return dataset.Stats{}, err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return dataset.Stats{}, err
	}
	st, err := dataset.Build(in, out, k, dataset.DefaultLimits(k))
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return st, err
	}
	ev := log.Info().Str("kind", string(k)).Int("read", st.Read).Int("written", st.Written).Str("path", outPath)
	if st.OverBudget > 0 {
		ev = ev.Int("over_budget", st.OverBudget)
	}
	ev.Msg("dataset written")
	return st, nil
}

// SegmentOptions controls the segment command.
type SegmentOptions struct {
	HTML      bool
	Anonymize bool
	// Explain writes the full analysis as JSON instead of the text.
	Explain bool
}

// Segment reads one email body from in and writes its best segment to out.
func (a *App) Segment(in io.Reader, out io.Writer, opts SegmentOptions) error {
	b, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	raw := extract.RawBody{ContentType: extract.ContentTypeText, Content: string(b)}
	if opts.HTML {
		raw.ContentType = extract.ContentTypeHTML
	}
	an := a.engine.Analyze(raw)
	if opts.Anonymize {
		an.Normalized = anonymize.Anonymize(an.Normalized)
		for i := range an.Segments {
			an.Segments[i].Text = anonymize.Anonymize(an.Segments[i].Text)
		}
		an.Final = anonymize.Anonymize(an.Final)
	}
	if opts.Explain {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(an); err != nil {
			return err
		}
	} else if an.Final != "" {
		if _, err := io.WriteString(out, an.Final+"\n"); err != nil {
			return err
		}
	}
	if an.Final == "" {
		return ErrNoSegment
	}
	return nil
}

// Review renders the records flagged for review into a PDF and returns
// how many were included.
func (a *App) Review() (int, error) {
	in, err := os.Open(a.cfg.labeledPath())
	if err != nil {
		return 0, err
	}
	defer in.Close()
	recs, err := review.Collect(in)
	if err != nil {
		return 0, err
	}
	path := a.cfg.reviewPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	if err := review.WriteFile(path, recs, review.Options{Anonymize: a.cfg.Anonymize, Now: a.now}); err != nil {
		return 0, err
	}
	log.Info().Int("records", len(recs)).Str("path", path).Msg("review sheet written")
	return len(recs), nil
}

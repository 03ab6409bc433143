package label

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/travelmail/internal/anonymize"
	"github.com/hyperifyio/travelmail/internal/mail"
	"github.com/hyperifyio/travelmail/internal/thread"
	"github.com/hyperifyio/travelmail/internal/validate"
)

// Record is one line of the labeled dataset. Label is null when extraction
// failed; Error is null when the label passed validation.
type Record struct {
	MailID           string          `json:"mail_id"`
	Subject          string          `json:"subject"`
	ReceivedDateTime string          `json:"receivedDateTime"`
	Text             string          `json:"text"`
	Label            json.RawMessage `json:"label"`
	ReviewNeeded     bool            `json:"review_needed"`
	Error            *string         `json:"error"`
}

// Stats summarizes a batch run.
type Stats struct {
	Lines        int                `json:"lines"`
	InvalidLines int                `json:"invalid_lines"`
	Skipped      map[SkipReason]int `json:"skipped"`
	Labeled      int                `json:"labeled"`
	ReviewNeeded int                `json:"review_needed"`
	Errors       int                `json:"errors"`
	Entries      []ManifestEntry    `json:"-"`
}

// Batch labels a stream of raw emails.
type Batch struct {
	Engine    *thread.Engine
	Extractor Extractor
	Filter    Filter
	// Anonymize masks contact details before the text leaves the process.
	Anonymize bool
	// Workers bounds concurrent extraction calls. Zero means 1.
	Workers int
}

type job struct {
	email mail.RawEmail
	text  string
	// done receives nil when the run was cancelled before the record
	// completed.
	done chan *Record
}

// Run reads raw email JSON lines from in and writes one Record per labeled
// message to out, in input order. Per-message failures become review
// records; only I/O errors and cancellation stop the run.
func (b *Batch) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	st := Stats{Skipped: map[SkipReason]int{}}
	engine := b.Engine
	if engine == nil {
		engine = thread.Default()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	queue := make(chan *job, workers)
	pending := make(chan *job, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				if ctx.Err() != nil {
					j.done <- nil
					continue
				}
				rec := b.label(ctx, j.email, j.text)
				if ctx.Err() != nil {
					j.done <- nil
					continue
				}
				j.done <- &rec
			}
		}()
	}

	written := make(chan Stats, 1)
	writeErr := make(chan error, 1)
	go func() {
		var ws Stats
		w := bufio.NewWriter(out)
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		var err error
		for j := range pending {
			rec := <-j.done
			if rec == nil || err != nil {
				continue
			}
			if err = enc.Encode(rec); err == nil {
				ws.Labeled++
				if rec.ReviewNeeded {
					ws.ReviewNeeded++
				}
				if rec.Label == nil {
					ws.Errors++
				}
				ws.Entries = append(ws.Entries, newManifestEntry(*rec))
				err = w.Flush()
			}
		}
		written <- ws
		writeErr <- err
	}()

	invalid, readErr := mail.ReadJSONL(in, func(line int, e mail.RawEmail) error {
		st.Lines = line
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if reason := b.Filter.Envelope(e); reason != SkipNone {
			st.Skipped[reason]++
			log.Info().Str("mail_id", e.ID).Int("line", line).Str("reason", string(reason)).Msg("skipping mail")
			return nil
		}
		text := engine.ExtractBestSegment(e.Body)
		if b.Anonymize {
			text = anonymize.Anonymize(text)
		}
		if reason := b.Filter.Text(text); reason != SkipNone {
			st.Skipped[reason]++
			log.Info().Str("mail_id", e.ID).Int("line", line).Str("reason", string(reason)).Msg("skipping mail")
			return nil
		}
		log.Info().Str("mail_id", e.ID).Int("line", line).Msg("labeling mail")
		j := &job{email: e, text: text, done: make(chan *Record, 1)}
		pending <- j
		queue <- j
		return nil
	})
	close(queue)
	close(pending)
	wg.Wait()
	ws := <-written
	werr := <-writeErr
	st.InvalidLines = invalid
	st.Labeled, st.ReviewNeeded, st.Errors, st.Entries = ws.Labeled, ws.ReviewNeeded, ws.Errors, ws.Entries

	if readErr != nil {
		return st, readErr
	}
	return st, werr
}

// label extracts and validates one message.
func (b *Batch) label(ctx context.Context, e mail.RawEmail, text string) Record {
	rec := Record{
		MailID:           e.ID,
		Subject:          e.Subject,
		ReceivedDateTime: e.ReceivedDateTime,
		Text:             text,
	}
	raw, err := b.Extractor.Extract(ctx, text)
	if err != nil {
		log.Error().Err(err).Str("mail_id", e.ID).Msg("extraction failed")
		msg := err.Error()
		rec.ReviewNeeded = true
		rec.Error = &msg
		return rec
	}
	rec.Label = raw
	if _, err := validate.Validate(raw); err != nil {
		log.Warn().Err(err).Str("mail_id", e.ID).Msg("label failed validation")
		msg := err.Error()
		rec.ReviewNeeded = true
		rec.Error = &msg
	}
	return rec
}

// ErrStop ends ReadRecords early.
var ErrStop = mail.ErrStop

// ReadRecords calls fn for each labeled record in r. Undecodable lines are
// skipped and counted.
func ReadRecords(r io.Reader, fn func(rec Record) error) (skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if bytes.Equal(bytes.TrimSpace(rec.Label), []byte("null")) {
			rec.Label = nil
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				return skipped, nil
			}
			return skipped, err
		}
	}
	return skipped, sc.Err()
}

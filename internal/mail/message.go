// Package mail retrieves training emails from a Microsoft 365 mailbox and
// stores them as JSON lines.
package mail

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperifyio/travelmail/internal/extract"
)

// Address is a Graph emailAddress.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an Address the way Graph does.
type Recipient struct {
	EmailAddress Address `json:"emailAddress"`
}

// Message is the subset of a Graph message resource that is fetched.
type Message struct {
	ID               string          `json:"id"`
	Subject          string          `json:"subject"`
	BodyPreview      string          `json:"bodyPreview"`
	Body             extract.RawBody `json:"body"`
	From             *Recipient      `json:"from"`
	ToRecipients     []Recipient     `json:"toRecipients"`
	CcRecipients     []Recipient     `json:"ccRecipients"`
	ReceivedDateTime string          `json:"receivedDateTime"`
}

// RawEmail is the flattened record written to raw_emails.jsonl.
type RawEmail struct {
	ID               string          `json:"id"`
	Subject          string          `json:"subject"`
	From             Address         `json:"from"`
	To               []Address       `json:"to"`
	CC               []Address       `json:"cc"`
	ReceivedDateTime string          `json:"receivedDateTime"`
	Body             extract.RawBody `json:"body"`
	BodyPreview      string          `json:"bodyPreview"`
}

// Simplify flattens a Graph message. A missing content type means HTML.
func Simplify(m Message) RawEmail {
	out := RawEmail{
		ID:               m.ID,
		Subject:          m.Subject,
		To:               addresses(m.ToRecipients),
		CC:               addresses(m.CcRecipients),
		ReceivedDateTime: m.ReceivedDateTime,
		Body:             m.Body,
		BodyPreview:      m.BodyPreview,
	}
	if m.From != nil {
		out.From = m.From.EmailAddress
	}
	if out.Body.ContentType == "" {
		out.Body.ContentType = extract.ContentTypeHTML
	}
	return out
}

func addresses(rs []Recipient) []Address {
	out := make([]Address, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.EmailAddress)
	}
	return out
}

// AppendJSONL appends one JSON object per email to path, creating parent
// directories as needed.
func AppendJSONL(path string, emails []RawEmail) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteJSONL(w, emails); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteJSONL encodes emails as JSON lines without HTML escaping.
func WriteJSONL(w io.Writer, emails []RawEmail) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range emails {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// ErrStop ends ReadJSONL early without reporting an error.
var ErrStop = errors.New("stop")

// ReadJSONL calls fn for each decodable line of r with its 1-based line
// number. Blank lines are ignored; undecodable lines are counted and
// skipped.
func ReadJSONL(r io.Reader, fn func(line int, e RawEmail) error) (skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var e RawEmail
		if err := json.Unmarshal(b, &e); err != nil {
			skipped++
			continue
		}
		if err := fn(line, e); err != nil {
			if errors.Is(err, ErrStop) {
				return skipped, nil
			}
			return skipped, err
		}
	}
	return skipped, sc.Err()
}

// Package review renders labeled records that need a human look into a
// printable PDF sheet.
package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/travelmail/internal/anonymize"
	"github.com/hyperifyio/travelmail/internal/label"
)

// Options controls the sheet layout.
type Options struct {
	Title string
	// Anonymize masks contact details in subjects and texts.
	Anonymize bool
	// MaxTextRunes caps each printed text. Zero means 4000.
	MaxTextRunes int
	// Uncompressed writes plain page streams, which keeps text greppable.
	Uncompressed bool
	Now          func() time.Time
}

// Collect returns the records of r that are flagged for review.
func Collect(r io.Reader) ([]label.Record, error) {
	var out []label.Record
	_, err := label.ReadRecords(r, func(rec label.Record) error {
		if rec.ReviewNeeded {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Write renders recs as a PDF to w.
func Write(w io.Writer, recs []label.Record, opts Options) error {
	pdf := render(recs, opts)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render review sheet: %w", err)
	}
	return nil
}

// WriteFile renders recs to path.
func WriteFile(path string, recs []label.Record, opts Options) error {
	pdf := render(recs, opts)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("render review sheet: %w", err)
	}
	return nil
}

func render(recs []label.Record, opts Options) *gofpdf.Fpdf {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Extraction review"
	}
	maxRunes := opts.MaxTextRunes
	if maxRunes <= 0 {
		maxRunes = 4000
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(Transliterate(s)) }

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, text(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d record(s)", now().UTC().Format(time.RFC3339), len(recs)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for i, rec := range recs {
		subject, body := rec.Subject, rec.Text
		if opts.Anonymize {
			subject, body = anonymize.Anonymize(subject), anonymize.Anonymize(body)
		}
		if strings.TrimSpace(subject) == "" {
			subject = "(no subject)"
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, text(fmt.Sprintf("%d. %s", i+1, subject)), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, text("Mail: "+rec.MailID), "", 1, "L", false, 0, "")
		if rec.ReceivedDateTime != "" {
			pdf.CellFormat(0, 5, text("Received: "+rec.ReceivedDateTime), "", 1, "L", false, 0, "")
		}
		if rec.Error != nil {
			pdf.SetTextColor(170, 0, 0)
			pdf.MultiCell(0, 5, text("Error: "+*rec.Error), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, text(clip(body, maxRunes)), "", "L", false)
		if len(rec.Label) > 0 {
			var buf bytes.Buffer
			if json.Indent(&buf, rec.Label, "", "  ") == nil {
				pdf.Ln(1)
				pdf.SetFont("Courier", "", 8)
				pdf.MultiCell(0, 4, text(buf.String()), "", "L", false)
			}
		}
		pdf.Ln(4)
	}
	return pdf
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + " [...]"
}

// Transliterate maps Turkish letters missing from the core PDF fonts'
// cp1252 encoding to ASCII.
func Transliterate(s string) string {
	return turkish.Replace(s)
}

var turkish = strings.NewReplacer(
	"ğ", "g", "Ğ", "G",
	"ş", "s", "Ş", "S",
	"ı", "i", "İ", "I",
)

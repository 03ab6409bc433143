package label

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"
	"unicode/utf8"
)

// ManifestEntry records the digest of the exact text sent for one mail.
type ManifestEntry struct {
	MailID       string `json:"mail_id"`
	SHA256       string `json:"sha256"`
	Chars        int    `json:"chars"`
	ReviewNeeded bool   `json:"review_needed"`
}

// ManifestMeta captures run details that aid reproducibility.
type ManifestMeta struct {
	Model       string    `json:"model"`
	LLMBaseURL  string    `json:"llm_base_url"`
	Input       string    `json:"input"`
	Anonymized  bool      `json:"anonymized"`
	LLMCache    bool      `json:"llm_cache"`
	Stats       Stats     `json:"stats"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Manifest is the machine-readable sidecar of a labeled output file.
type Manifest struct {
	Meta    ManifestMeta    `json:"meta"`
	Records []ManifestEntry `json:"records"`
}

func sha256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func newManifestEntry(rec Record) ManifestEntry {
	return ManifestEntry{
		MailID:       rec.MailID,
		SHA256:       sha256Hex(rec.Text),
		Chars:        utf8.RuneCountInString(rec.Text),
		ReviewNeeded: rec.ReviewNeeded,
	}
}

// SidecarPath returns the manifest path next to an output file.
func SidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

// WriteManifest writes meta and the run's entries to path.
func WriteManifest(path string, meta ManifestMeta) error {
	entries := meta.Stats.Entries
	if entries == nil {
		entries = []ManifestEntry{}
	}
	b, err := json.MarshalIndent(Manifest{Meta: meta, Records: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// Package lexicon holds the keyword and marker tables that drive thread
// segmentation and segment scoring. Tables are plain data: components copy
// and lower-case them at construction, so a Tables value can be shared by
// any number of engines without synchronization.
package lexicon

import (
	"errors"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Tables bundles the three lists used by the engine.
type Tables struct {
	// Markers introduce a quoted or forwarded message. A leading "\n"
	// anchors the marker to the start of a line.
	Markers []string `yaml:"markers" json:"markers"`
	// Travel lists request terms (flights, hotels, transfers, booking).
	Travel []string `yaml:"travel" json:"travel"`
	// Legal lists confidentiality and disclaimer boilerplate phrases.
	Legal []string `yaml:"legal" json:"legal"`
}

var defaultMarkers = []string{
	"-----original message-----",
	"----- özgün ileti -----",
	"-----özgün ileti-----",
	"\nfrom:",
	"\ngönderen:",
	"\nkimden:",
}

// Some airline codes carry surrounding spaces on purpose so that they only
// hit as standalone tokens ("tk ", " pc ", " xq ").
var defaultTravel = []string{
	"uçuş", "ucus", "bilet", "rezervasyon", "otel",
	"konaklama", "transfer", "uçak", "ucak",
	"gidiş", "gidis", "dönüş", "donus",
	"tek yön", "tek yon", "gidiş-dönüş", "gidis-donus",
	"check-in", "check in", "check-out", "check out",
	"giriş", "çıkış",
	"thy", "pegasus", "sunexpress", "tk ", " pc ", " xq ",
	"flight", "hotel", "booking", "reservation",
	"telep", "request", "boarding", "pnr", "voucher",
}

var defaultLegal = []string{
	"gizlidir", "gizliliği", "hukuken", "yasal", "sorumlu değildir",
	"yetkili alıcı", "yanlışlıkla", "lütfen siliniz",
	"bu e-posta ve ekleri", "bu eposta ve ekleri",
	"bu elektronik posta", "işbu e-posta", "işbu eposta", "isbu e-posta", "isbu eposta",
	"gönderilen kişilere özel olup",
	"sadece göndericisi tarafindan almasi",
	"sadece göndericisi tarafından alması",
	"posta sorumluluk red",
	"confidential", "confidentiality", "disclaimer",
	"if you are not the intended recipient",
	"please delete this e-mail", "please delete this email",
	"consider the environment", "before printing this email",
}

// Default returns a fresh copy of the built-in Turkish/English tables.
func Default() Tables {
	return Tables{
		Markers: append([]string(nil), defaultMarkers...),
		Travel:  append([]string(nil), defaultTravel...),
		Legal:   append([]string(nil), defaultLegal...),
	}
}

// Clone returns a deep copy of t.
func (t Tables) Clone() Tables {
	return Tables{
		Markers: append([]string(nil), t.Markers...),
		Travel:  append([]string(nil), t.Travel...),
		Legal:   append([]string(nil), t.Legal...),
	}
}

// Validate rejects blank entries. A blank marker or keyword would match
// every position of every text.
func (t Tables) Validate() error {
	check := func(name string, list []string) error {
		for i, s := range list {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("lexicon: %s[%d] is blank", name, i)
			}
		}
		return nil
	}
	if err := check("markers", t.Markers); err != nil {
		return err
	}
	if err := check("travel", t.Travel); err != nil {
		return err
	}
	return check("legal", t.Legal)
}

// LoadFile reads tables from a YAML (or JSON, which is valid YAML) file.
// Lists that are absent or empty in the file keep their default values so a
// tenant file can override only the legal phrases, for example.
func LoadFile(path string) (Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Tables{}, errors.New("lexicon: empty path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, err
	}
	return Parse(b)
}

// Parse decodes tables from YAML bytes, filling missing lists from Default.
func Parse(b []byte) (Tables, error) {
	var fromFile Tables
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return Tables{}, fmt.Errorf("lexicon: parse yaml: %w", err)
	}
	out := Default()
	if len(fromFile.Markers) > 0 {
		out.Markers = fromFile.Markers
	}
	if len(fromFile.Travel) > 0 {
		out.Travel = fromFile.Travel
	}
	if len(fromFile.Legal) > 0 {
		out.Legal = fromFile.Legal
	}
	if err := out.Validate(); err != nil {
		return Tables{}, err
	}
	return out, nil
}

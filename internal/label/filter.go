// Package label turns raw training emails into labeled extraction records by
// selecting the request segment of each thread and asking a chat model for
// the structured travel request.
package label

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/travelmail/internal/mail"
)

// Defaults for the mailbox the training set is drawn from.
const (
	DefaultDomain   = "julesverne.com.tr"
	DefaultMinChars = 40
)

// DefaultGroups are the distribution lists whose mail carries requests.
var DefaultGroups = []string{"booking", "jvnobet", "karadeniz", "denizbank", "tvekip1", "tvekip2", "tvekip3", "tvekip4"}

// ReplyPrefixes mark subjects of replies and forwards, in English and
// Turkish clients.
var ReplyPrefixes = []string{"re:", "fw:", "fwd:", "ynt:", "cev:", "cevap:", "yanıt:"}

// SkipReason explains why a message was not labeled.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipReply     SkipReason = "reply_subject"
	SkipNotTarget SkipReason = "not_target_group"
	SkipTooShort  SkipReason = "too_short"
)

// Filter decides which messages are worth labeling.
type Filter struct {
	Domain   string
	Groups   []string
	MinChars int
}

// DefaultFilter returns the production filter.
func DefaultFilter() Filter {
	return Filter{Domain: DefaultDomain, Groups: append([]string(nil), DefaultGroups...), MinChars: DefaultMinChars}
}

// IsReply reports whether subject starts with a reply or forward prefix.
func IsReply(subject string) bool {
	s := strings.ToLower(strings.TrimSpace(subject))
	for _, p := range ReplyPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// TargetsGroup reports whether any recipient is a group address at the
// company domain.
func (f Filter) TargetsGroup(to []mail.Address) bool {
	suffix := "@" + strings.ToLower(strings.TrimSpace(f.Domain))
	for _, r := range to {
		addr := strings.ToLower(strings.TrimSpace(r.Address))
		if !strings.HasSuffix(addr, suffix) {
			continue
		}
		for _, g := range f.Groups {
			if g = strings.ToLower(strings.TrimSpace(g)); g != "" && strings.Contains(addr, g) {
				return true
			}
		}
	}
	return false
}

// Envelope checks the message headers.
func (f Filter) Envelope(e mail.RawEmail) SkipReason {
	if IsReply(e.Subject) {
		return SkipReply
	}
	if !f.TargetsGroup(e.To) {
		return SkipNotTarget
	}
	return SkipNone
}

// Text checks the selected body text.
func (f Filter) Text(text string) SkipReason {
	if utf8.RuneCountInString(text) < f.MinChars {
		return SkipTooShort
	}
	return SkipNone
}

// Package anonymize masks email addresses, phone numbers and booking-code
// lookalikes in free text. It is a best-effort mask for training data and
// review sheets. Short uppercase product codes are masked too.
package anonymize

import (
	"regexp"
	"strings"
	"unicode"
)

// Mask tokens written in place of each match.
const (
	EmailMask = "EMAIL_MASKED"
	PhoneMask = "PHONE_MASKED"
	PNRMask   = "PNR_MASKED"
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)

// Anonymize applies the email, phone and PNR masks in that order.
func Anonymize(text string) string {
	if text == "" {
		return ""
	}
	text = MaskEmails(text)
	text = MaskPhones(text)
	return MaskPNRs(text)
}

// MaskEmails replaces address-like tokens with EmailMask.
func MaskEmails(text string) string {
	return emailRe.ReplaceAllLiteralString(text, EmailMask)
}

// MaskPhones replaces phone-like digit runs with PhoneMask. A match is an
// optional "+", a digit, at least seven digits, spaces or hyphens, and a
// closing digit, with no ASCII letter or digit directly before or after it.
func MaskPhones(text string) string {
	return replaceSpans(text, PhoneMask, phoneAt)
}

// MaskPNRs replaces standalone runs of 5 to 7 uppercase ASCII letters and
// digits with PNRMask. Standalone means not adjacent to any Unicode letter,
// digit or underscore, so "ŞAB12C3" is left alone.
func MaskPNRs(text string) string {
	return replaceSpans(text, PNRMask, pnrAt)
}

// matcher reports the end of a match starting at i, or -1.
type matcher func(rs []rune, i int) int

func replaceSpans(text, mask string, match matcher) string {
	rs := []rune(text)
	var sb strings.Builder
	last := 0
	for i := 0; i < len(rs); {
		end := match(rs, i)
		if end < 0 {
			i++
			continue
		}
		sb.WriteString(string(rs[last:i]))
		sb.WriteString(mask)
		last, i = end, end
	}
	if last == 0 {
		return text
	}
	sb.WriteString(string(rs[last:]))
	return sb.String()
}

func isASCIIAlnum(r rune) bool {
	return r < unicode.MaxASCII && (r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

func isPhoneBody(r rune) bool { return unicode.IsDigit(r) || r == ' ' || r == '-' }

func phoneAt(rs []rune, i int) int {
	if i > 0 && isASCIIAlnum(rs[i-1]) {
		return -1
	}
	j := i
	if rs[j] == '+' {
		j++
	}
	if j >= len(rs) || !unicode.IsDigit(rs[j]) {
		return -1
	}
	run := j + 1
	for run < len(rs) && isPhoneBody(rs[run]) {
		run++
	}
	// Longest end first: at least seven body runes between the first and
	// last digit.
	for end := run; end >= j+9; end-- {
		if !unicode.IsDigit(rs[end-1]) {
			continue
		}
		if end < len(rs) && isASCIIAlnum(rs[end]) {
			continue
		}
		return end
	}
	return -1
}

func isWord(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) }

func isPNRRune(r rune) bool { return r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' }

func pnrAt(rs []rune, i int) int {
	if i > 0 && isWord(rs[i-1]) {
		return -1
	}
	end := i
	for end < len(rs) && isPNRRune(rs[end]) {
		end++
	}
	if n := end - i; n < 5 || n > 7 {
		return -1
	}
	if end < len(rs) && isWord(rs[end]) {
		return -1
	}
	return end
}

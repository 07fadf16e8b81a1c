// Package textfmt holds the pure string transforms used when rendering log
// records: sanitization of user supplied text, date and duration formatting.
package textfmt

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// DownArrow separates a before value from its after value.
const DownArrow = "🡫"

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?@#$%^&*()_+=\[\]{};'":<>/\\🡫-]`)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			cases.Lower(language.Und),
		)
	},
}

// Sanitize lowercases s and strips every character outside the allowed set.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	out = disallowed.ReplaceAllString(out, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, out)
}

// EscapeCode keeps backticks from closing a code span early.
func EscapeCode(s string) string {
	return strings.ReplaceAll(s, "`", "\\`")
}

// Datetime renders t as "october 15th, 2026 @ 3:04:05pm".
func Datetime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "am"
	if t.Hour() >= 12 {
		ampm = "pm"
	}
	return strings.ToLower(fmt.Sprintf("%s %d%s, %d @ %d:%02d:%02d%s",
		t.Month().String(), t.Day(), ordinal(t.Day()), t.Year(), hour, t.Minute(), t.Second(), ampm))
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Duration renders d as "1h 2m 3s", dropping zero leading units.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

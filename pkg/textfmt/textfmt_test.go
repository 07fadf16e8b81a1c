package textfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "Alice", want: "alice"},
		{name: "keeps punctuation", in: "hi, there!", want: "hi, there!"},
		{name: "strips zero width", in: "a\u200bb", want: "ab"},
		{name: "folds fullwidth", in: "ＡＢＣ", want: "abc"},
		{name: "drops emoji", in: "ok 👍", want: "ok "},
		{name: "keeps arrow", in: "x\n" + DownArrow, want: "x\n" + DownArrow},
		{name: "strips accents", in: "café", want: "cafe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestDatetime(t *testing.T) {
	ts := time.Date(2026, time.October, 1, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "october 1st, 2026 @ 3:04:05pm", Datetime(ts))

	ts = time.Date(2026, time.March, 12, 0, 7, 9, 0, time.UTC)
	assert.Equal(t, "march 12th, 2026 @ 12:07:09am", Datetime(ts))

	ts = time.Date(2026, time.March, 23, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, "march 23rd, 2026 @ 11:00:00am", Datetime(ts))

	assert.Equal(t, "", Datetime(time.Time{}))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "40s", Duration(40*time.Second))
	assert.Equal(t, "2m 5s", Duration(125*time.Second))
	assert.Equal(t, "1h 0m 3s", Duration(time.Hour+3*time.Second))
	assert.Equal(t, "0s", Duration(-time.Second))
}

func TestEscapeCode(t *testing.T) {
	assert.Equal(t, "a\\`b", EscapeCode("a`b"))
}

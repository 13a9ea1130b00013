package progress

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "short url unchanged", in: "https://example.com/a", want: "https://example.com/a"},
		{
			name: "query dropped, host kept",
			in:   "https://pub-bouldercounty.escribemeetings.com/?Year=2025&Expanded=Board",
			want: "pub-bouldercounty.escribemeetings.com/",
		},
		{
			name: "long path trimmed",
			in:   "https://example.com/a/very/long/path/to/some/meeting/page.aspx",
			want: "example.com.../to/some/meeting/page.aspx",
		},
		{
			name: "not a url",
			in:   strings.Repeat("x", 50),
			want: "..." + strings.Repeat("x", 40),
		},
		{
			name: "multibyte path cut on rune boundary",
			in:   "https://example.com/agendas/" + strings.Repeat("ü", 40),
			want: "example.com..." + strings.Repeat("ü", 26),
		},
		{
			name: "multibyte short url counted in runes",
			in:   "https://ex.com/" + strings.Repeat("é", 25),
			want: "https://ex.com/" + strings.Repeat("é", 25),
		},
		{
			name: "multibyte non-url",
			in:   strings.Repeat("日", 45),
			want: "..." + strings.Repeat("日", 40),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortURL(tt.in))
		})
	}
}

func TestTrackerDisabled(t *testing.T) {
	p := New(false, nil)
	p.Step("Loading page")
	p.Stop()
	assert.Zero(t, p.Steps())
}

func TestTrackerWithoutTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "spinner.out"))
	require.NoError(t, err)
	defer f.Close()

	p := New(true, f)
	p.Step("Loading page")
	p.Step("Waiting for meetings region")
	p.Stop()

	assert.Equal(t, 2, p.Steps())
	assert.False(t, p.spinner.Active(), "spinner never starts outside a terminal")
}

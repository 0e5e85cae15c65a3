package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain name unchanged",
			in:   "song.mp3",
			want: "song.mp3",
		},
		{
			name: "spaces collapse to single underscore",
			in:   "My  Favourite   Song.mp3",
			want: "My_Favourite_Song.mp3",
		},
		{
			name: "illegal filesystem characters stripped",
			in:   `a:b*c?d"e<f>g|h.mp3`,
			want: "abcdefgh.mp3",
		},
		{
			name: "path separators reduce to base name",
			in:   "../../etc/passwd",
			want: "passwd",
		},
		{
			name: "windows style separators stripped",
			in:   `evil\name.mp3`,
			want: "evilname.mp3",
		},
		{
			name: "control characters stripped",
			in:   "so\x00ng\x1f.mp3",
			want: "song.mp3",
		},
		{
			name: "tabs and newlines treated as whitespace",
			in:   "a\tb\nc.mp3",
			want: "a_b_c.mp3",
		},
		{
			name: "empty input falls back",
			in:   "",
			want: "download",
		},
		{
			name: "only illegal characters falls back",
			in:   `..\\..`,
			want: "download",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_TruncatesPreservingExtension(t *testing.T) {
	long := strings.Repeat("a", 200) + ".mp3"
	got := SanitizeFilename(long)

	assert.Len(t, got, maxFilenameLen)
	assert.True(t, strings.HasSuffix(got, ".mp3"))
}

func TestSanitizeFilename_HeaderSafe(t *testing.T) {
	got := SanitizeFilename("name\"with\r\nquotes.mp3")
	assert.NotContains(t, got, `"`)
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n")
}

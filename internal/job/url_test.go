package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain https url",
			raw:  "https://example.com/watch?v=abc123",
			want: "https://example.com/watch?v=abc123",
		},
		{
			name: "uppercase scheme and host are lowered",
			raw:  "HTTPS://Example.COM/Watch?v=abc",
			want: "https://example.com/Watch?v=abc",
		},
		{
			name: "fragment is stripped",
			raw:  "https://example.com/video#t=30",
			want: "https://example.com/video",
		},
		{
			name: "surrounding whitespace is trimmed",
			raw:  "  https://example.com/a  ",
			want: "https://example.com/a",
		},
		{
			name: "http is accepted",
			raw:  "http://example.com/a",
			want: "http://example.com/a",
		},
		{
			name:    "non-http scheme rejected",
			raw:     "ftp://example.com/file",
			wantErr: true,
		},
		{
			name:    "file scheme rejected",
			raw:     "file:///etc/passwd",
			wantErr: true,
		},
		{
			name:    "missing host rejected",
			raw:     "https://",
			wantErr: true,
		},
		{
			name:    "not a url at all",
			raw:     "definitely not a url",
			wantErr: true,
		},
		{
			name:    "empty string rejected",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.raw)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidURL)
				assert.Empty(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeURL_SameAddressCollapses(t *testing.T) {
	a, err := NormalizeURL("https://Example.com/watch?v=abc")
	require.NoError(t, err)
	b, err := NormalizeURL("HTTPS://example.COM/watch?v=abc#start")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, URLDigest(a), URLDigest(b))
}

func TestURLDigest(t *testing.T) {
	d := URLDigest("https://example.com/a")
	assert.Len(t, d, 64)
	assert.NotEqual(t, d, URLDigest("https://example.com/b"))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

package extractor

import (
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds sanitized names so they stay safe in both
// Content-Disposition headers and filesystem paths.
const maxFilenameLen = 100

// SanitizeFilename strips characters that are illegal or risky in file systems
// and HTTP headers, collapses runs of whitespace to a single underscore, and
// truncates to maxFilenameLen while preserving the extension. The result
// guards the download path and response header, not the extractor invocation.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		case strings.ContainsRune(`/\:*?"<>|`, r) || r < 0x20 || r == 0x7f:
			// dropped
			inSpace = false
		default:
			b.WriteRune(r)
			inSpace = false
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "download"
	}
	if len(out) <= maxFilenameLen {
		return out
	}

	ext := filepath.Ext(out)
	if len(ext) >= maxFilenameLen {
		return out[:maxFilenameLen]
	}
	return out[:maxFilenameLen-len(ext)] + ext
}

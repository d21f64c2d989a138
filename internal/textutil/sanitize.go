package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AllowedAudioExtensions lists the upload formats the pipeline accepts.
var AllowedAudioExtensions = []string{"mp3", "wav", "m4a", "flac"}

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFileName reduces name to an ASCII file name that cannot escape its
// directory. Accents are folded (NFKD with combining marks removed), other
// non-ASCII runes are dropped, whitespace and path separators become
// underscores and leading dots or underscores are trimmed. The result may be
// empty.
func SecureFileName(name string) string {
	fold := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		return ""
	}
	folded = strings.NewReplacer("/", " ", "\\", " ").Replace(folded)
	folded = strings.Join(strings.Fields(folded), "_")
	folded = unsafeFileNameChars.ReplaceAllString(folded, "")
	return strings.Trim(folded, "._")
}

// AllowedAudioExtension reports whether name carries one of
// AllowedAudioExtensions, ignoring case.
func AllowedAudioExtension(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, allowed := range AllowedAudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

package textutil

import "strings"

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

// Extension returns a sanitized ".ext" for the last path element of a URL or
// file path, or "" when there is none. Query strings and fragments are ignored.
func Extension(source string) string {
	source = strings.TrimSpace(source)
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	if i := strings.LastIndexAny(source, `/\`); i >= 0 {
		source = source[i+1:]
	}
	dot := strings.LastIndexByte(source, '.')
	if dot < 0 || dot == len(source)-1 {
		return ""
	}
	ext := source[dot+1:]
	if len(ext) > 8 {
		return ""
	}
	token := SanitizeToken(ext)
	if token == "unknown" {
		return ""
	}
	return "." + token
}

package ffmpeg

import (
	"strconv"
	"strings"
)

var (
	// Characters special inside a single option value.
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	// Characters special to the filtergraph parser.
	graphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeOptionValue applies the first escaping level to a filter option value.
func EscapeOptionValue(value string) string {
	return optionEscaper.Replace(value)
}

// EscapeGraph applies the second escaping level to a filter description.
func EscapeGraph(value string) string {
	return graphEscaper.Replace(value)
}

// EscapeValue applies both escaping levels so value survives as a literal
// option value inside a filtergraph.
func EscapeValue(value string) string {
	return EscapeGraph(EscapeOptionValue(value))
}

// QuoteConcatPath renders a path for a concat demuxer "file" directive.
func QuoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatSeconds renders a duration in seconds with millisecond precision.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

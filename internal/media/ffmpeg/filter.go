package ffmpeg

import (
	"strconv"
	"strings"
)

// Option is a single key=value filter argument. An empty Key renders the
// value positionally.
type Option struct {
	Key   string
	Value string
}

// Filter is one named filter with ordered options.
type Filter struct {
	Name    string
	Options []Option
}

// NewFilter builds a filter from its options.
func NewFilter(name string, options ...Option) Filter {
	return Filter{Name: name, Options: options}
}

// Opt is a named option with a string value.
func Opt(key, value string) Option { return Option{Key: key, Value: value} }

// OptNum is a named option with a numeric value.
func OptNum(key string, value float64) Option { return Option{Key: key, Value: FormatNumber(value)} }

// OptInt is a named option with an integer value.
func OptInt(key string, value int) Option { return Option{Key: key, Value: strconv.Itoa(value)} }

// String renders the filter with every option value escaped for use inside
// a filtergraph.
func (f Filter) String() string {
	if len(f.Options) == 0 {
		return f.Name
	}
	parts := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		value := EscapeValue(opt.Value)
		if opt.Key == "" {
			parts = append(parts, value)
			continue
		}
		parts = append(parts, opt.Key+"="+value)
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Chain is a linear sequence of filters with optional input and output pad
// labels.
type Chain struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

func (c Chain) String() string {
	var b strings.Builder
	for _, label := range c.Inputs {
		b.WriteString("[" + label + "]")
	}
	for i, f := range c.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, label := range c.Outputs {
		b.WriteString("[" + label + "]")
	}
	return b.String()
}

// Graph joins chains with ';'.
type Graph []Chain

func (g Graph) String() string {
	parts := make([]string, 0, len(g))
	for _, chain := range g {
		parts = append(parts, chain.String())
	}
	return strings.Join(parts, ";")
}

package ffmpeg_test

import (
	"testing"

	"toneexport/internal/media/ffmpeg"
)

func TestEscapeValueMatchesFilterDocumentation(t *testing.T) {
	in := `this is a 'string': may contain one, or more, special characters`
	want := `this is a \\\'string\\\'\\: may contain one\, or more\, special characters`
	if got := ffmpeg.EscapeValue(in); got != want {
		t.Fatalf("EscapeValue mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestEscapeLevels(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) string
		input string
		want  string
	}{
		{"option colon", ffmpeg.EscapeOptionValue, "a:b", `a\:b`},
		{"option backslash", ffmpeg.EscapeOptionValue, `a\b`, `a\\b`},
		{"option keeps comma", ffmpeg.EscapeOptionValue, "a,b", "a,b"},
		{"graph brackets", ffmpeg.EscapeGraph, "[in];[out]", `\[in\]\;\[out\]`},
		{"graph comma", ffmpeg.EscapeGraph, "between(t,2,5)", `between(t\,2\,5)`},
		{"both apostrophe", ffmpeg.EscapeValue, "it's", `it\\\'s`},
		{"plain", ffmpeg.EscapeValue, "hello world", "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteConcatPath(t *testing.T) {
	if got := ffmpeg.QuoteConcatPath("clips/clip_0.mp4"); got != "'clips/clip_0.mp4'" {
		t.Fatalf("unexpected quoting %q", got)
	}
	if got := ffmpeg.QuoteConcatPath("it's.mp4"); got != `'it'\''s.mp4'` {
		t.Fatalf("unexpected apostrophe quoting %q", got)
	}
}

func TestFilterChainGraphRendering(t *testing.T) {
	f := ffmpeg.NewFilter("scale", ffmpeg.OptInt("w", 1080), ffmpeg.OptInt("h", 1920))
	if got := f.String(); got != "scale=w=1080:h=1920" {
		t.Fatalf("unexpected filter %q", got)
	}
	if got := ffmpeg.NewFilter("hflip").String(); got != "hflip" {
		t.Fatalf("unexpected bare filter %q", got)
	}
	if got := ffmpeg.NewFilter("setsar", ffmpeg.Option{Value: "1"}).String(); got != "setsar=1" {
		t.Fatalf("unexpected positional filter %q", got)
	}

	graph := ffmpeg.Graph{
		{Inputs: []string{"0:v"}, Filters: []ffmpeg.Filter{f, ffmpeg.NewFilter("hflip")}, Outputs: []string{"v"}},
		{Inputs: []string{"0:a"}, Filters: []ffmpeg.Filter{ffmpeg.NewFilter("volume", ffmpeg.OptNum("volume", 0.5))}, Outputs: []string{"a"}},
	}
	want := "[0:v]scale=w=1080:h=1920,hflip[v];[0:a]volume=volume=0.5[a]"
	if got := graph.String(); got != want {
		t.Fatalf("unexpected graph\n got: %s\nwant: %s", got, want)
	}
}

func TestFormatNumbers(t *testing.T) {
	if got := ffmpeg.FormatNumber(1.0); got != "1" {
		t.Fatalf("FormatNumber(1) = %q", got)
	}
	if got := ffmpeg.FormatNumber(-0.25); got != "-0.25" {
		t.Fatalf("FormatNumber(-0.25) = %q", got)
	}
	if got := ffmpeg.FormatSeconds(3); got != "3.000" {
		t.Fatalf("FormatSeconds(3) = %q", got)
	}
}

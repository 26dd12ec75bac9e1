package ffmpeg

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Command is one ffmpeg invocation.
type Command interface {
	// Name identifies the operation in logs and errors.
	Name() string
	// Args returns the argument vector, excluding the binary.
	Args() []string
	// Output is the file the command writes.
	Output() string
}

// Encoder carries the codec settings shared by every re-encoding command.
type Encoder struct {
	VideoCodec      string
	Preset          string
	CRF             int
	AudioCodec      string
	AudioBitrate    string
	AudioSampleRate int
	PixelFormat     string
}

func (e Encoder) videoArgs() []string {
	args := []string{"-c:v", e.VideoCodec}
	if e.Preset != "" {
		args = append(args, "-preset", e.Preset)
	}
	if e.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(e.CRF))
	}
	if e.PixelFormat != "" {
		args = append(args, "-pix_fmt", e.PixelFormat)
	}
	return args
}

func (e Encoder) audioArgs() []string {
	args := []string{"-c:a", e.AudioCodec}
	if e.AudioBitrate != "" {
		args = append(args, "-b:a", e.AudioBitrate)
	}
	if e.AudioSampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(e.AudioSampleRate))
	}
	return args
}

func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
}

// ColorAdjust are eq filter parameters.
type ColorAdjust struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

// NormalizeClip re-encodes one source clip to the export geometry: color
// adjustment, scale to fit, centered pad, constant frame rate, truncated to
// Duration. Sources shorter than Duration are left short.
type NormalizeClip struct {
	Input    string
	Out      string
	Width    int
	Height   int
	FPS      float64
	Duration float64
	Color    ColorAdjust
	// SilentAudio adds a generated stereo silence track for sources without
	// audio so every normalized clip has the same stream layout.
	SilentAudio bool
	Encoder     Encoder
}

func (c NormalizeClip) Name() string   { return "normalize" }
func (c NormalizeClip) Output() string { return c.Out }

// VideoChain returns the per-clip video filter chain.
func (c NormalizeClip) VideoChain() Chain {
	return Chain{Filters: []Filter{
		NewFilter("eq",
			OptNum("brightness", c.Color.Brightness),
			OptNum("contrast", c.Color.Contrast),
			OptNum("saturation", c.Color.Saturation),
		),
		NewFilter("scale",
			OptInt("w", c.Width),
			OptInt("h", c.Height),
			Opt("force_original_aspect_ratio", "decrease"),
		),
		NewFilter("pad",
			OptInt("w", c.Width),
			OptInt("h", c.Height),
			Opt("x", "(ow-iw)/2"),
			Opt("y", "(oh-ih)/2"),
			Opt("color", "black"),
		),
		NewFilter("fps", OptNum("fps", c.FPS)),
		NewFilter("setsar", Option{Value: "1"}),
	}}
}

func (c NormalizeClip) Args() []string {
	args := baseArgs()
	args = append(args, "-i", c.Input)
	if c.SilentAudio {
		rate := c.Encoder.AudioSampleRate
		if rate <= 0 {
			rate = 44100
		}
		silence := NewFilter("anullsrc", Opt("channel_layout", "stereo"), OptInt("sample_rate", rate))
		args = append(args, "-f", "lavfi", "-i", silence.String())
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-shortest")
	} else {
		args = append(args, "-map", "0:v:0", "-map", "0:a:0")
	}
	args = append(args, "-vf", c.VideoChain().String())
	args = append(args, c.Encoder.videoArgs()...)
	args = append(args, c.Encoder.audioArgs()...)
	args = append(args, "-ac", "2")
	args = append(args, "-t", FormatSeconds(c.Duration))
	args = append(args, "-movflags", "+faststart", c.Out)
	return args
}

// ConcatCopy joins clips listed in a concat demuxer manifest without
// re-encoding.
type ConcatCopy struct {
	Manifest string
	Out      string
}

func (c ConcatCopy) Name() string   { return "concat" }
func (c ConcatCopy) Output() string { return c.Out }

func (c ConcatCopy) Args() []string {
	args := baseArgs()
	args = append(args, "-f", "concat", "-safe", "0", "-i", c.Manifest)
	args = append(args, "-c", "copy", "-movflags", "+faststart", c.Out)
	return args
}

// ConcatManifest renders the demuxer manifest for the given paths, one
// "file" directive per line in order.
func ConcatManifest(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		b.WriteString("file ")
		b.WriteString(QuoteConcatPath(path))
		b.WriteByte('\n')
	}
	return b.String()
}

// MixAudio mixes an added track under the video's own audio. The added
// track is trimmed to Duration and the mix follows the first input's length.
// Video is stream-copied.
type MixAudio struct {
	Video    string
	Audio    string
	Out      string
	Duration float64
	Volume   float64
	Encoder  Encoder
}

func (c MixAudio) Name() string   { return "mix" }
func (c MixAudio) Output() string { return c.Out }

// Graph returns the audio mixing filtergraph.
func (c MixAudio) Graph() Graph {
	return Graph{
		{
			Inputs:  []string{"0:a"},
			Filters: []Filter{NewFilter("volume", Option{Value: "1"})},
			Outputs: []string{"a0"},
		},
		{
			Inputs: []string{"1:a"},
			Filters: []Filter{
				NewFilter("atrim", Opt("start", "0"), Opt("end", FormatSeconds(c.Duration))),
				NewFilter("asetpts", Option{Value: "PTS-STARTPTS"}),
				NewFilter("volume", Option{Value: FormatNumber(c.Volume)}),
			},
			Outputs: []string{"a1"},
		},
		{
			Inputs:  []string{"a0", "a1"},
			Filters: []Filter{NewFilter("amix", OptInt("inputs", 2), Opt("duration", "first"))},
			Outputs: []string{"aout"},
		},
	}
}

func (c MixAudio) Args() []string {
	args := baseArgs()
	args = append(args, "-i", c.Video, "-i", c.Audio)
	args = append(args, "-filter_complex", c.Graph().String())
	args = append(args, "-map", "0:v", "-map", "[aout]", "-c:v", "copy")
	args = append(args, c.Encoder.audioArgs()...)
	args = append(args, "-movflags", "+faststart", c.Out)
	return args
}

// DrawText is one timed overlay, centered on (X, Y) in pixels.
type DrawText struct {
	Text     string
	X        float64
	Y        float64
	FontSize int
	Color    string
	FontFile string
	Start    float64
	End      float64
}

// Filter renders the drawtext filter. Text is NFC-normalized and taken
// literally; no %{} expansion is performed.
func (d DrawText) Filter() Filter {
	opts := make([]Option, 0, 9)
	if d.FontFile != "" {
		opts = append(opts, Opt("fontfile", d.FontFile))
	}
	opts = append(opts,
		Opt("text", norm.NFC.String(d.Text)),
		Opt("expansion", "none"),
		OptInt("fontsize", d.FontSize),
		Opt("fontcolor", d.Color),
		Opt("x", FormatNumber(d.X)+"-text_w/2"),
		Opt("y", FormatNumber(d.Y)+"-text_h/2"),
		Opt("enable", "between(t,"+FormatNumber(d.Start)+","+FormatNumber(d.End)+")"),
	)
	return NewFilter("drawtext", opts...)
}

// BurnText renders all overlays in one re-encode pass, copying audio.
type BurnText struct {
	Input   string
	Out     string
	Texts   []DrawText
	Encoder Encoder
}

func (c BurnText) Name() string   { return "overlay" }
func (c BurnText) Output() string { return c.Out }

// VideoChain returns the overlay chain in declaration order.
func (c BurnText) VideoChain() Chain {
	filters := make([]Filter, 0, len(c.Texts))
	for _, text := range c.Texts {
		filters = append(filters, text.Filter())
	}
	return Chain{Filters: filters}
}

func (c BurnText) Args() []string {
	args := baseArgs()
	args = append(args, "-i", c.Input)
	args = append(args, "-vf", c.VideoChain().String())
	args = append(args, c.Encoder.videoArgs()...)
	args = append(args, "-c:a", "copy", "-movflags", "+faststart", c.Out)
	return args
}

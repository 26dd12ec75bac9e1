package project

import "math"

// Track types understood by the exporter.
const (
	TrackVideo = "video"
	TrackAudio = "audio"
	TrackText  = "text"
)

const (
	DefaultClipDuration = 5.0
	DefaultFilterValue  = 100.0
	DefaultVolume       = 1.0
	DefaultPosition     = 50.0
	DefaultFontSize     = 48
	DefaultTextColor    = "white"
	DefaultTextStart    = 0.0
	DefaultTextEnd      = 10.0
	DefaultFPS          = 30.0
	DefaultWidth        = 1080
	DefaultHeight       = 1920
)

// Project is the resolved, read-only export description.
type Project struct {
	Settings Settings

	video []VideoClip
	audio *AudioClip
	text  []TextClip
}

// Settings are fixed for the whole export.
type Settings struct {
	FPS    float64
	Width  int
	Height int
}

// Filter holds the 0-200 color inputs where 100 is neutral.
type Filter struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

// ColorAdjust is a Filter mapped onto the transcoder's eq ranges.
type ColorAdjust struct {
	Brightness float64 // -1..1, 0 is identity
	Contrast   float64 // 0..2, 1 is identity
	Saturation float64 // 0..2, 1 is identity
}

// Identity reports whether applying the adjustment would be a no-op.
func (c ColorAdjust) Identity() bool {
	return c.Brightness == 0 && c.Contrast == 1 && c.Saturation == 1
}

type VideoClip struct {
	ID       string
	Src      string
	Duration float64
	Filter   Filter
}

// ColorAdjust maps the clip's filter inputs to eq parameters. Inputs outside
// 0-200 are clamped.
func (c VideoClip) ColorAdjust() ColorAdjust {
	return ColorAdjust{
		Brightness: (clamp(c.Filter.Brightness, 0, 200) - 100) / 100,
		Contrast:   clamp(c.Filter.Contrast, 0, 200) / 100,
		Saturation: clamp(c.Filter.Saturation, 0, 200) / 100,
	}
}

type AudioClip struct {
	ID     string
	Src    string
	Volume float64
}

type TextClip struct {
	ID       string
	Content  string
	X        float64 // percent of frame width
	Y        float64 // percent of frame height
	FontSize int
	Color    string
	Start    float64
	End      float64
}

// VisibleAt reports whether the overlay is shown at time t (seconds).
func (c TextClip) VisibleAt(t float64) bool {
	return t >= c.Start && t <= c.End
}

// Anchor returns the pixel the text block is centered on for a frame of the
// given size.
func (c TextClip) Anchor(width, height int) (float64, float64) {
	return c.X / 100 * float64(width), c.Y / 100 * float64(height)
}

// VideoClips returns the clips of the first video track in declaration order.
func (p *Project) VideoClips() []VideoClip {
	if p == nil {
		return nil
	}
	return p.video
}

// AudioClip returns the first clip of the first audio track when it has a source.
func (p *Project) AudioClip() (AudioClip, bool) {
	if p == nil || p.audio == nil {
		return AudioClip{}, false
	}
	return *p.audio, true
}

// TextClips returns the overlays of the first text track in declaration order.
func (p *Project) TextClips() []TextClip {
	if p == nil {
		return nil
	}
	return p.text
}

// TotalDuration is the sum of declared video clip durations.
func (p *Project) TotalDuration() float64 {
	var total float64
	for _, clip := range p.VideoClips() {
		total += clip.Duration
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"toneexport/internal/services"
)

// Raw document shape. Pointers distinguish absent fields from explicit zeros.
type rawProject struct {
	Tracks   []rawTrack   `json:"tracks" yaml:"tracks"`
	Settings *rawSettings `json:"settings" yaml:"settings"`
}

type rawTrack struct {
	Type  string    `json:"type" yaml:"type"`
	Clips []rawClip `json:"clips" yaml:"clips"`
}

type rawSettings struct {
	FPS        *float64       `json:"fps" yaml:"fps"`
	Resolution *rawResolution `json:"resolution" yaml:"resolution"`
}

type rawResolution struct {
	Width  *int `json:"width" yaml:"width"`
	Height *int `json:"height" yaml:"height"`
}

type rawClip struct {
	ID       string       `json:"id" yaml:"id"`
	Src      string       `json:"src" yaml:"src"`
	Duration *float64     `json:"duration" yaml:"duration"`
	Filter   *rawFilter   `json:"filter" yaml:"filter"`
	Volume   *float64     `json:"volume" yaml:"volume"`
	Content  string       `json:"content" yaml:"content"`
	Position *rawPosition `json:"position" yaml:"position"`
	Style    *rawStyle    `json:"style" yaml:"style"`
	Start    *float64     `json:"start" yaml:"start"`
	End      *float64     `json:"end" yaml:"end"`
}

type rawFilter struct {
	Brightness *float64 `json:"brightness" yaml:"brightness"`
	Contrast   *float64 `json:"contrast" yaml:"contrast"`
	Saturation *float64 `json:"saturation" yaml:"saturation"`
}

type rawPosition struct {
	X *float64 `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
}

type rawStyle struct {
	FontSize *int   `json:"fontSize" yaml:"fontSize"`
	Color    string `json:"color" yaml:"color"`
}

// Load reads and resolves the project file at path. Files ending in .yaml or
// .yml are decoded as YAML; everything else as JSON. Every failure is marked
// with services.ErrParse.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "load", "read project", path, err)
	}
	return Parse(data, formatFor(path))
}

// Format selects the project decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a project document held in memory.
func Parse(data []byte, format Format) (*Project, error) {
	var raw rawProject
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, services.Wrap(services.ErrParse, "load", "decode yaml", "", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, services.Wrap(services.ErrParse, "load", "decode json", "", err)
		}
	}
	return resolve(raw)
}

func resolve(raw rawProject) (*Project, error) {
	p := &Project{Settings: resolveSettings(raw.Settings)}

	seen := map[string]bool{}
	for _, track := range raw.Tracks {
		kind := strings.ToLower(strings.TrimSpace(track.Type))
		if seen[kind] {
			continue
		}
		switch kind {
		case TrackVideo:
			clips, err := resolveVideo(track.Clips)
			if err != nil {
				return nil, err
			}
			p.video = clips
		case TrackAudio:
			p.audio = resolveAudio(track.Clips)
		case TrackText:
			clips, err := resolveText(track.Clips)
			if err != nil {
				return nil, err
			}
			p.text = clips
		default:
			continue
		}
		seen[kind] = true
	}
	return p, nil
}

func resolveSettings(raw *rawSettings) Settings {
	s := Settings{FPS: DefaultFPS, Width: DefaultWidth, Height: DefaultHeight}
	if raw == nil {
		return s
	}
	if raw.FPS != nil && *raw.FPS > 0 {
		s.FPS = *raw.FPS
	}
	if raw.Resolution != nil {
		if raw.Resolution.Width != nil && *raw.Resolution.Width > 0 {
			s.Width = *raw.Resolution.Width
		}
		if raw.Resolution.Height != nil && *raw.Resolution.Height > 0 {
			s.Height = *raw.Resolution.Height
		}
	}
	return s
}

func resolveVideo(raw []rawClip) ([]VideoClip, error) {
	clips := make([]VideoClip, 0, len(raw))
	for i, rc := range raw {
		clip := VideoClip{
			ID:       clipID(rc.ID, i),
			Src:      strings.TrimSpace(rc.Src),
			Duration: floatOr(rc.Duration, DefaultClipDuration),
			Filter:   Filter{Brightness: DefaultFilterValue, Contrast: DefaultFilterValue, Saturation: DefaultFilterValue},
		}
		if rc.Filter != nil {
			clip.Filter.Brightness = floatOr(rc.Filter.Brightness, DefaultFilterValue)
			clip.Filter.Contrast = floatOr(rc.Filter.Contrast, DefaultFilterValue)
			clip.Filter.Saturation = floatOr(rc.Filter.Saturation, DefaultFilterValue)
		}
		if clip.Src == "" {
			return nil, services.Wrap(services.ErrParse, "load", "resolve video clip", fmt.Sprintf("clip %s has no src", clip.ID), nil)
		}
		// ffmpeg -t 0 yields a clip with no frames, which the concat step rejects.
		if clip.Duration <= 0 {
			return nil, services.Wrap(services.ErrParse, "load", "resolve video clip", fmt.Sprintf("clip %s duration must be positive, got %g", clip.ID, clip.Duration), nil)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func resolveAudio(raw []rawClip) *AudioClip {
	if len(raw) == 0 {
		return nil
	}
	rc := raw[0]
	src := strings.TrimSpace(rc.Src)
	if src == "" {
		return nil
	}
	return &AudioClip{
		ID:     clipID(rc.ID, 0),
		Src:    src,
		Volume: floatOr(rc.Volume, DefaultVolume),
	}
}

func resolveText(raw []rawClip) ([]TextClip, error) {
	clips := make([]TextClip, 0, len(raw))
	for i, rc := range raw {
		clip := TextClip{
			ID:       clipID(rc.ID, i),
			Content:  rc.Content,
			X:        DefaultPosition,
			Y:        DefaultPosition,
			FontSize: DefaultFontSize,
			Color:    DefaultTextColor,
			Start:    floatOr(rc.Start, DefaultTextStart),
			End:      floatOr(rc.End, DefaultTextEnd),
		}
		if rc.Position != nil {
			clip.X = floatOr(rc.Position.X, DefaultPosition)
			clip.Y = floatOr(rc.Position.Y, DefaultPosition)
		}
		if rc.Style != nil {
			if rc.Style.FontSize != nil && *rc.Style.FontSize > 0 {
				clip.FontSize = *rc.Style.FontSize
			}
			if color := strings.TrimSpace(rc.Style.Color); color != "" {
				clip.Color = color
			}
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func clipID(id string, index int) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return strconv.Itoa(index + 1)
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"toneexport/internal/project"
	"toneexport/internal/services"
)

func writeProject(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeProject(t, "project.json", `{
		"tracks": [
			{"type": "video", "clips": [{"id": "a", "src": "https://cdn.example/a.mp4"}]},
			{"type": "audio", "clips": [{"src": "https://cdn.example/song.mp3"}]},
			{"type": "text", "clips": [{"content": "hello"}]}
		]
	}`)

	p, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Settings != (project.Settings{FPS: 30, Width: 1080, Height: 1920}) {
		t.Fatalf("unexpected settings %+v", p.Settings)
	}

	clips := p.VideoClips()
	if len(clips) != 1 {
		t.Fatalf("expected one video clip, got %d", len(clips))
	}
	if clips[0].Duration != 5 {
		t.Fatalf("expected default duration 5, got %g", clips[0].Duration)
	}
	if clips[0].Filter != (project.Filter{Brightness: 100, Contrast: 100, Saturation: 100}) {
		t.Fatalf("unexpected default filter %+v", clips[0].Filter)
	}

	audio, ok := p.AudioClip()
	if !ok || audio.Volume != 1 {
		t.Fatalf("expected audio clip with volume 1, got %+v ok=%v", audio, ok)
	}

	text := p.TextClips()
	if len(text) != 1 {
		t.Fatalf("expected one text clip, got %d", len(text))
	}
	want := project.TextClip{ID: "1", Content: "hello", X: 50, Y: 50, FontSize: 48, Color: "white", Start: 0, End: 10}
	if text[0] != want {
		t.Fatalf("unexpected text defaults %+v", text[0])
	}
}

func TestLoadHonorsExplicitZeros(t *testing.T) {
	path := writeProject(t, "project.json", `{
		"tracks": [
			{"type": "video", "clips": [{"src": "a.mp4", "duration": 3, "filter": {"brightness": 0, "contrast": 0, "saturation": 200}}]},
			{"type": "audio", "clips": [{"src": "song.mp3", "volume": 0}]},
			{"type": "text", "clips": [{"content": "x", "position": {"x": 0, "y": 100}, "start": 0, "end": 0}]}
		],
		"settings": {"fps": 24, "resolution": {"width": 720, "height": 1280}}
	}`)

	p, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	clip := p.VideoClips()[0]
	if clip.Filter.Brightness != 0 || clip.Filter.Contrast != 0 || clip.Filter.Saturation != 200 {
		t.Fatalf("explicit filter values lost: %+v", clip.Filter)
	}
	if audio, _ := p.AudioClip(); audio.Volume != 0 {
		t.Fatalf("expected explicit zero volume, got %g", audio.Volume)
	}
	text := p.TextClips()[0]
	if text.X != 0 || text.Y != 100 || text.End != 0 {
		t.Fatalf("explicit text values lost: %+v", text)
	}
	if p.Settings != (project.Settings{FPS: 24, Width: 720, Height: 1280}) {
		t.Fatalf("unexpected settings %+v", p.Settings)
	}
}

func TestLoadFirstTrackOfEachTypeWins(t *testing.T) {
	path := writeProject(t, "project.json", `{
		"tracks": [
			{"type": "video", "clips": [{"id": "first", "src": "a.mp4"}]},
			{"type": "sticker", "clips": [{"src": "ignored"}]},
			{"type": "video", "clips": [{"id": "second", "src": "b.mp4"}, {"id": "third", "src": "c.mp4"}]},
			{"type": "audio", "clips": [{"src": "one.mp3", "volume": 0.5}, {"src": "two.mp3"}]}
		]
	}`)

	p, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if clips := p.VideoClips(); len(clips) != 1 || clips[0].ID != "first" {
		t.Fatalf("expected first video track only, got %+v", clips)
	}
	audio, ok := p.AudioClip()
	if !ok || audio.Src != "one.mp3" || audio.Volume != 0.5 {
		t.Fatalf("expected first audio clip, got %+v", audio)
	}
}

func TestAudioClipWithoutSourceIsIgnored(t *testing.T) {
	p, err := project.Parse([]byte(`{"tracks":[{"type":"video","clips":[{"src":"a.mp4"}]},{"type":"audio","clips":[{"src":"  "}]}]}`), project.FormatJSON)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, ok := p.AudioClip(); ok {
		t.Fatal("expected audio clip without src to be ignored")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeProject(t, "project.yaml", `
settings:
  fps: 25
  resolution: {width: 640, height: 360}
tracks:
  - type: video
    clips:
      - {id: v1, src: "https://cdn.example/v1.mp4", duration: 2.5}
  - type: text
    clips:
      - content: "it's here"
        style: {fontSize: 64, color: yellow}
        start: 1
        end: 2
`)

	p, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Settings.FPS != 25 || p.Settings.Width != 640 {
		t.Fatalf("unexpected settings %+v", p.Settings)
	}
	if clip := p.VideoClips()[0]; clip.ID != "v1" || clip.Duration != 2.5 {
		t.Fatalf("unexpected clip %+v", clip)
	}
	text := p.TextClips()[0]
	if text.FontSize != 64 || text.Color != "yellow" || text.Content != "it's here" {
		t.Fatalf("unexpected text clip %+v", text)
	}
}

func TestLoadErrorsAreParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed json", "p.json", `{"tracks": [`},
		{"malformed yaml", "p.yml", "tracks: [\n  - type: video\n  clips"},
		{"wrong types", "p.json", `{"tracks": "video"}`},
		{"missing src", "p.json", `{"tracks":[{"type":"video","clips":[{"id":"x"}]}]}`},
		{"zero duration", "p.json", `{"tracks":[{"type":"video","clips":[{"src":"a","duration":0}]}]}`},
		{"trailing garbage", "p.json", `{"tracks":[{"type":"video","clips":[{"src":"a.mp4"}]}]} }}garbage`},
		{"second document", "p.json", `{"tracks":[]} {"tracks":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.Load(writeProject(t, tt.file, tt.content))
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := project.Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying not-exist cause, got %v", err)
	}
}

func TestEmptyVideoTrackLoads(t *testing.T) {
	p, err := project.Parse([]byte(`{"tracks":[{"type":"video","clips":[]}]}`), project.FormatJSON)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(p.VideoClips()) != 0 {
		t.Fatalf("expected no clips")
	}
}

func TestColorAdjust(t *testing.T) {
	tests := []struct {
		name   string
		filter project.Filter
		want   project.ColorAdjust
	}{
		{"neutral", project.Filter{Brightness: 100, Contrast: 100, Saturation: 100}, project.ColorAdjust{Brightness: 0, Contrast: 1, Saturation: 1}},
		{"minimum", project.Filter{Brightness: 0, Contrast: 0, Saturation: 0}, project.ColorAdjust{Brightness: -1, Contrast: 0, Saturation: 0}},
		{"maximum", project.Filter{Brightness: 200, Contrast: 200, Saturation: 200}, project.ColorAdjust{Brightness: 1, Contrast: 2, Saturation: 2}},
		{"mid", project.Filter{Brightness: 150, Contrast: 50, Saturation: 125}, project.ColorAdjust{Brightness: 0.5, Contrast: 0.5, Saturation: 1.25}},
		{"clamped", project.Filter{Brightness: 400, Contrast: -10, Saturation: 999}, project.ColorAdjust{Brightness: 1, Contrast: 0, Saturation: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project.VideoClip{Filter: tt.filter}.ColorAdjust()
			if got != tt.want {
				t.Fatalf("ColorAdjust(%+v) = %+v, want %+v", tt.filter, got, tt.want)
			}
		})
	}
	if !(project.ColorAdjust{Brightness: 0, Contrast: 1, Saturation: 1}).Identity() {
		t.Fatal("expected neutral adjustment to be identity")
	}
}

func TestTextVisibleAt(t *testing.T) {
	clip := project.TextClip{Start: 2, End: 5}
	for _, tc := range []struct {
		t    float64
		want bool
	}{
		{1.99, false}, {2, true}, {3.5, true}, {5, true}, {5.01, false},
	} {
		if got := clip.VisibleAt(tc.t); got != tc.want {
			t.Fatalf("VisibleAt(%g) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestInvertedTextWindowLoadsButNeverShows(t *testing.T) {
	p, err := project.Parse([]byte(`{"tracks":[{"type":"text","clips":[{"content":"x","start":5,"end":2}]}]}`), project.FormatJSON)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	texts := p.TextClips()
	if len(texts) != 1 {
		t.Fatalf("expected one text clip, got %d", len(texts))
	}
	for _, at := range []float64{0, 2, 3.5, 5, 6} {
		if texts[0].VisibleAt(at) {
			t.Fatalf("inverted window visible at %g", at)
		}
	}
}

func TestAnchorAndTotalDuration(t *testing.T) {
	x, y := project.TextClip{X: 50, Y: 25}.Anchor(1080, 1920)
	if x != 540 || y != 480 {
		t.Fatalf("unexpected anchor (%g, %g)", x, y)
	}
	p, err := project.Parse([]byte(`{"tracks":[{"type":"video","clips":[{"src":"a","duration":3},{"src":"b","duration":3}]}]}`), project.FormatJSON)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.TotalDuration() != 6 {
		t.Fatalf("expected total 6, got %g", p.TotalDuration())
	}
}

package ffmpeg_test

import (
	"slices"
	"strings"
	"testing"

	"toneexport/internal/media/ffmpeg"
)

var testEncoder = ffmpeg.Encoder{
	VideoCodec:      "libx264",
	Preset:          "veryfast",
	CRF:             23,
	AudioCodec:      "aac",
	AudioBitrate:    "192k",
	AudioSampleRate: 44100,
	PixelFormat:     "yuv420p",
}

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		t.Fatalf("flag %s not found in %v", flag, args)
	}
	return args[idx+1]
}

func TestNormalizeClipArgs(t *testing.T) {
	cmd := ffmpeg.NormalizeClip{
		Input:    "/scratch/clips/source_0",
		Out:      "/scratch/clips/clip_0.mp4",
		Width:    1080,
		Height:   1920,
		FPS:      30,
		Duration: 3,
		Color:    ffmpeg.ColorAdjust{Brightness: 0, Contrast: 1, Saturation: 1},
		Encoder:  testEncoder,
	}
	args := cmd.Args()

	wantChain := "eq=brightness=0:contrast=1:saturation=1," +
		"scale=w=1080:h=1920:force_original_aspect_ratio=decrease," +
		"pad=w=1080:h=1920:x=(ow-iw)/2:y=(oh-ih)/2:color=black," +
		"fps=fps=30,setsar=1"
	if got := argAfter(t, args, "-vf"); got != wantChain {
		t.Fatalf("unexpected chain\n got: %s\nwant: %s", got, wantChain)
	}
	if got := argAfter(t, args, "-t"); got != "3.000" {
		t.Fatalf("unexpected duration %q", got)
	}
	if got := argAfter(t, args, "-i"); got != cmd.Input {
		t.Fatalf("unexpected input %q", got)
	}
	if args[len(args)-1] != cmd.Out || cmd.Output() != cmd.Out {
		t.Fatalf("expected output last, got %v", args)
	}
	if slices.Contains(args, "lavfi") {
		t.Fatalf("did not expect silent audio input: %v", args)
	}
	if argAfter(t, args, "-c:v") != "libx264" || argAfter(t, args, "-pix_fmt") != "yuv420p" {
		t.Fatalf("unexpected encoder args %v", args)
	}
}

func TestNormalizeClipSilentAudio(t *testing.T) {
	cmd := ffmpeg.NormalizeClip{Input: "in", Out: "out.mp4", Width: 640, Height: 360, FPS: 25, Duration: 1.5, SilentAudio: true, Encoder: testEncoder}
	args := cmd.Args()
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f lavfi -i anullsrc=channel_layout=stereo:sample_rate=44100") {
		t.Fatalf("expected silent source, got %s", joined)
	}
	if !strings.Contains(joined, "-map 0:v:0 -map 1:a:0 -shortest") {
		t.Fatalf("expected silent audio mapping, got %s", joined)
	}
}

func TestNormalizeClipColorAdjust(t *testing.T) {
	cmd := ffmpeg.NormalizeClip{Width: 2, Height: 2, FPS: 30, Color: ffmpeg.ColorAdjust{Brightness: -0.5, Contrast: 1.5, Saturation: 0}}
	chain := cmd.VideoChain()
	if got := chain.Filters[0].String(); got != "eq=brightness=-0.5:contrast=1.5:saturation=0" {
		t.Fatalf("unexpected eq filter %q", got)
	}
}

func TestConcatCopy(t *testing.T) {
	cmd := ffmpeg.ConcatCopy{Manifest: "/scratch/concat.txt", Out: "/scratch/combined.mp4"}
	joined := strings.Join(cmd.Args(), " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i /scratch/concat.txt -c copy") {
		t.Fatalf("unexpected concat args %s", joined)
	}
	manifest := ffmpeg.ConcatManifest([]string{"clips/clip_0.mp4", "clips/clip_1.mp4"})
	want := "file 'clips/clip_0.mp4'\nfile 'clips/clip_1.mp4'\n"
	if manifest != want {
		t.Fatalf("unexpected manifest %q", manifest)
	}
}

func TestMixAudio(t *testing.T) {
	cmd := ffmpeg.MixAudio{Video: "combined.mp4", Audio: "audio/track", Out: "mixed.mp4", Duration: 6, Volume: 0.8, Encoder: testEncoder}
	wantGraph := "[0:a]volume=1[a0];[1:a]atrim=start=0:end=6.000,asetpts=PTS-STARTPTS,volume=0.8[a1];[a0][a1]amix=inputs=2:duration=first[aout]"
	if got := cmd.Graph().String(); got != wantGraph {
		t.Fatalf("unexpected graph\n got: %s\nwant: %s", got, wantGraph)
	}
	args := cmd.Args()
	if argAfter(t, args, "-filter_complex") != wantGraph {
		t.Fatalf("graph not passed to -filter_complex: %v", args)
	}
	if argAfter(t, args, "-c:v") != "copy" {
		t.Fatalf("expected video stream copy: %v", args)
	}
	if argAfter(t, args, "-c:a") != "aac" {
		t.Fatalf("expected audio re-encode: %v", args)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-map 0:v -map [aout]") {
		t.Fatalf("unexpected mapping %s", joined)
	}
}

func TestDrawTextEscaping(t *testing.T) {
	d := ffmpeg.DrawText{Text: "Tone's: best, ever", X: 540, Y: 960, FontSize: 48, Color: "white", Start: 2, End: 5}
	want := `drawtext=text=Tone\\\'s\\: best\, ever:expansion=none:fontsize=48:fontcolor=white:x=540-text_w/2:y=960-text_h/2:enable=between(t\,2\,5)`
	if got := d.Filter().String(); got != want {
		t.Fatalf("unexpected drawtext\n got: %s\nwant: %s", got, want)
	}
}

func TestDrawTextNormalizesUnicode(t *testing.T) {
	decomposed := "Cafe\u0301"
	got := ffmpeg.DrawText{Text: decomposed, FontSize: 10, Color: "red"}.Filter().Options[0].Value
	if got != "Caf\u00e9" {
		t.Fatalf("expected NFC text, got %q", got)
	}
}

func TestBurnTextAppliesAllOverlaysInOnePass(t *testing.T) {
	cmd := ffmpeg.BurnText{
		Input: "in.mp4",
		Out:   "out.mp4",
		Texts: []ffmpeg.DrawText{
			{Text: "one", X: 10, Y: 20, FontSize: 12, Color: "white", Start: 0, End: 1},
			{Text: "two", X: 30, Y: 40, FontSize: 12, Color: "red", FontFile: "/fonts/a.ttf", Start: 1, End: 2},
		},
		Encoder: testEncoder,
	}
	args := cmd.Args()
	chain := argAfter(t, args, "-vf")
	if strings.Count(chain, "drawtext=") != 2 {
		t.Fatalf("expected two overlays, got %s", chain)
	}
	if strings.Index(chain, "text=one") > strings.Index(chain, "text=two") {
		t.Fatalf("overlays out of order: %s", chain)
	}
	if !strings.Contains(chain, "drawtext=fontfile=/fonts/a.ttf:text=two") {
		t.Fatalf("expected font file option: %s", chain)
	}
	if argAfter(t, args, "-c:a") != "copy" {
		t.Fatalf("expected audio stream copy: %v", args)
	}
}

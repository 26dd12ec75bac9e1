package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"toneexport/internal/logging"
	"toneexport/internal/media/ffmpeg"
	"toneexport/internal/project"
	"toneexport/internal/services"
)

// durationTolerance is how far a normalized clip may fall short of its
// declared duration before a warning is logged.
const durationTolerance = 0.1

func (e *Exporter) fetchClips(ctx context.Context, state *run) error {
	ctx = services.WithStage(ctx, StageFetch)
	clips := state.project.VideoClips()
	state.sources = make([]string, len(clips))
	for i, clip := range clips {
		clipCtx := services.WithClipID(ctx, clip.ID)
		logger := logging.WithContext(clipCtx, e.logger)
		dest := state.workspace.SourcePath(i + 1)
		logger.Info("fetching clip", logging.String("src", clip.Src))
		if err := e.fetcher.Fetch(clipCtx, clip.Src, dest); err != nil {
			return err
		}
		state.sources[i] = dest
	}
	return nil
}

func (e *Exporter) normalizeClips(ctx context.Context, state *run) error {
	ctx = services.WithStage(ctx, StageNormalize)
	settings := state.project.Settings
	clips := state.project.VideoClips()
	state.clips = make([]string, len(clips))

	for i, clip := range clips {
		clipCtx := services.WithClipID(ctx, clip.ID)
		logger := logging.WithContext(clipCtx, e.logger)

		info, err := e.prober.Inspect(clipCtx, state.sources[i])
		if err != nil {
			return services.Wrap(services.ErrEncode, StageNormalize, "probe source", "clip "+clip.ID, err)
		}
		if _, ok := info.VideoStream(); !ok {
			return services.Wrap(services.ErrEncode, StageNormalize, "probe source", fmt.Sprintf("clip %s has no video stream", clip.ID), nil)
		}

		cmd := ffmpeg.NormalizeClip{
			Input:       state.sources[i],
			Out:         state.workspace.ClipPath(i + 1),
			Width:       settings.Width,
			Height:      settings.Height,
			FPS:         settings.FPS,
			Duration:    clip.Duration,
			Color:       colorAdjust(clip.ColorAdjust()),
			SilentAudio: !info.HasAudio(),
			Encoder:     e.encoder,
		}
		logger.Info("normalizing clip",
			logging.Float64("duration", clip.Duration),
			logging.Bool("silent_audio", cmd.SilentAudio),
			logging.Bool("color_filter", !clip.ColorAdjust().Identity()),
		)
		if err := e.runner.Run(clipCtx, cmd); err != nil {
			return services.Wrap(services.ErrEncode, StageNormalize, "normalize clip", "clip "+clip.ID, err)
		}
		e.checkClipDuration(clipCtx, clip, cmd.Out)
		state.clips[i] = cmd.Out
	}
	return nil
}

// checkClipDuration warns when a source was shorter than the declared
// duration. The clip is kept at its natural length.
func (e *Exporter) checkClipDuration(ctx context.Context, clip project.VideoClip, path string) {
	logger := logging.WithContext(ctx, e.logger)
	info, err := e.prober.Inspect(ctx, path)
	if err != nil {
		logger.Debug("normalized clip probe failed", logging.Error(err))
		return
	}
	actual := info.DurationSeconds()
	if actual <= 0 || clip.Duration-actual <= durationTolerance {
		return
	}
	logging.WarnWithContext(logger, "clip shorter than declared duration", "clip_duration_mismatch",
		logging.Float64("declared_seconds", clip.Duration),
		logging.Float64("actual_seconds", actual),
		logging.String(logging.FieldImpact, "export will be shorter than the project timeline"),
	)
}

func colorAdjust(c project.ColorAdjust) ffmpeg.ColorAdjust {
	return ffmpeg.ColorAdjust{
		Brightness: c.Brightness,
		Contrast:   c.Contrast,
		Saturation: c.Saturation,
	}
}

// assemble concatenates the normalized clips and applies the optional mix and
// overlay passes in that order. It returns the path of the last output.
func (e *Exporter) assemble(ctx context.Context, state *run) (string, error) {
	ctx = services.WithStage(ctx, StageAssemble)
	logger := logging.WithContext(ctx, e.logger)

	current, err := e.concat(ctx, state)
	if err != nil {
		return "", err
	}

	if audio, ok := state.project.AudioClip(); ok {
		current, err = e.mixAudio(ctx, state, audio, current)
		if err != nil {
			return "", err
		}
	}

	if texts := state.project.TextClips(); len(texts) > 0 {
		current, err = e.overlayText(ctx, state, texts, current)
		if err != nil {
			return "", err
		}
	}

	logger.Debug("assembly complete", logging.String("result", current))
	return current, nil
}

func (e *Exporter) concat(ctx context.Context, state *run) (string, error) {
	logger := logging.WithContext(ctx, e.logger)
	combined := state.workspace.Path("combined.mp4")

	if len(state.clips) == 1 {
		logger.Info("single clip; copying without re-encode")
		if _, err := copyFile(state.clips[0], combined); err != nil {
			return "", services.Wrap(services.ErrEncode, StageAssemble, "copy single clip", "", err)
		}
		return combined, nil
	}

	rel := make([]string, len(state.clips))
	for i, clip := range state.clips {
		r, err := state.workspace.Rel(clip)
		if err != nil {
			return "", services.Wrap(services.ErrEncode, StageAssemble, "write manifest", clip, err)
		}
		rel[i] = r
	}
	manifest := state.workspace.ManifestPath()
	if err := os.WriteFile(manifest, []byte(ffmpeg.ConcatManifest(rel)), 0o644); err != nil {
		return "", services.Wrap(services.ErrEncode, StageAssemble, "write manifest", manifest, err)
	}

	logger.Info("concatenating clips", logging.Int("clips", len(rel)))
	cmd := ffmpeg.ConcatCopy{Manifest: manifest, Out: combined}
	if err := e.runner.Run(ctx, cmd); err != nil {
		return "", services.Wrap(services.ErrEncode, StageAssemble, "concatenate clips", "", err)
	}
	return combined, nil
}

func (e *Exporter) mixAudio(ctx context.Context, state *run, audio project.AudioClip, video string) (string, error) {
	logger := logging.WithContext(ctx, e.logger)
	track := filepath.Join(state.workspace.AudioDir(), "track"+sourceExt(audio.Src))

	logger.Info("fetching audio track", logging.String("src", audio.Src))
	if err := e.fetcher.Fetch(services.WithClipID(ctx, audio.ID), audio.Src, track); err != nil {
		return "", err
	}

	info, err := e.prober.Inspect(ctx, video)
	if err != nil {
		return "", services.Wrap(services.ErrMix, StageAssemble, "probe combined video", "", err)
	}
	duration := info.DurationSeconds()
	if duration <= 0 {
		return "", services.Wrap(services.ErrMix, StageAssemble, "probe combined video", "combined video has no duration", nil)
	}

	cmd := ffmpeg.MixAudio{
		Video:    video,
		Audio:    track,
		Out:      state.workspace.Path("mixed.mp4"),
		Duration: duration,
		Volume:   audio.Volume,
		Encoder:  e.encoder,
	}
	logger.Info("mixing audio track",
		logging.Float64("video_seconds", duration),
		logging.Float64("volume", audio.Volume),
	)
	if err := e.runner.Run(ctx, cmd); err != nil {
		return "", services.Wrap(services.ErrMix, StageAssemble, "mix audio", "", err)
	}
	return cmd.Out, nil
}

func (e *Exporter) overlayText(ctx context.Context, state *run, texts []project.TextClip, video string) (string, error) {
	logger := logging.WithContext(ctx, e.logger)
	settings := state.project.Settings

	overlays := make([]ffmpeg.DrawText, len(texts))
	for i, text := range texts {
		x, y := text.Anchor(settings.Width, settings.Height)
		overlays[i] = ffmpeg.DrawText{
			Text:     text.Content,
			X:        x,
			Y:        y,
			FontSize: text.FontSize,
			Color:    text.Color,
			FontFile: e.fontFile,
			Start:    text.Start,
			End:      text.End,
		}
	}

	cmd := ffmpeg.BurnText{
		Input:   video,
		Out:     state.workspace.Path("overlay.mp4"),
		Texts:   overlays,
		Encoder: e.encoder,
	}
	logger.Info("burning text overlays", logging.Int("overlays", len(overlays)))
	if err := e.runner.Run(ctx, cmd); err != nil {
		return "", services.Wrap(services.ErrEncode, StageAssemble, "overlay text", "", err)
	}
	return cmd.Out, nil
}

package export

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"toneexport/internal/config"
	"toneexport/internal/history"
	"toneexport/internal/logging"
	"toneexport/internal/media/ffmpeg"
	"toneexport/internal/media/ffprobe"
	"toneexport/internal/project"
	"toneexport/internal/services"
	"toneexport/internal/staging"
)

// Stage names used in log fields and error messages.
const (
	StageLoad      = "load"
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageAssemble  = "assemble"
	StageFinalize  = "finalize"
)

// Fetcher retrieves a clip source into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, src, dest string) error
}

// Recorder persists run outcomes. *history.Store satisfies it.
type Recorder interface {
	Start(ctx context.Context, run history.Run) (history.Run, error)
	Finish(ctx context.Context, id string, outcome history.Outcome) error
}

// Dependencies bundles the collaborators an Exporter drives.
type Dependencies struct {
	Fetcher Fetcher
	Runner  ffmpeg.Runner
	Prober  ffprobe.Prober
	// History is optional.
	History Recorder
	Logger  *slog.Logger
}

// Exporter turns project files into finished videos.
type Exporter struct {
	fetcher     Fetcher
	runner      ffmpeg.Runner
	prober      ffprobe.Prober
	history     Recorder
	logger      *slog.Logger
	encoder     ffmpeg.Encoder
	scratchRoot string
	fontFile    string
	now         func() time.Time
}

// New constructs an Exporter from configuration and collaborators.
func New(cfg *config.Config, deps Dependencies) (*Exporter, error) {
	if cfg == nil {
		return nil, errors.New("export: config is nil")
	}
	if deps.Fetcher == nil || deps.Runner == nil || deps.Prober == nil {
		return nil, errors.New("export: fetcher, runner, and prober are required")
	}
	return &Exporter{
		fetcher:     deps.Fetcher,
		runner:      deps.Runner,
		prober:      deps.Prober,
		history:     deps.History,
		logger:      logging.NewComponentLogger(deps.Logger, "export"),
		encoder:     EncoderFromConfig(cfg),
		scratchRoot: cfg.Paths.ScratchRoot,
		fontFile:    cfg.Text.FontFile,
		now:         time.Now,
	}, nil
}

// EncoderFromConfig maps the [encoding] section onto ffmpeg encoder settings.
func EncoderFromConfig(cfg *config.Config) ffmpeg.Encoder {
	return ffmpeg.Encoder{
		VideoCodec:      cfg.Encoding.VideoCodec,
		Preset:          cfg.Encoding.Preset,
		CRF:             cfg.Encoding.CRF,
		AudioCodec:      cfg.Encoding.AudioCodec,
		AudioBitrate:    cfg.Encoding.AudioBitrate,
		AudioSampleRate: cfg.Encoding.AudioSampleRate,
		PixelFormat:     cfg.Encoding.PixelFormat,
	}
}

// run carries per-invocation state between stages.
type run struct {
	id        string
	project   *project.Project
	workspace *staging.Workspace
	sources   []string
	clips     []string
	logger    *slog.Logger
}

// Run exports the project at projectPath to outputPath. Every failure is
// tagged with one of the services markers and no output file is left behind.
func (e *Exporter) Run(ctx context.Context, projectPath, outputPath string) (result *Result, err error) {
	if strings.TrimSpace(outputPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, StageFinalize, "validate output", "output path is empty", nil)
	}

	state := &run{id: uuid.NewString()}
	ctx = services.WithRunID(ctx, state.id)
	state.logger = logging.WithContext(ctx, e.logger)
	started := e.now()

	proj, loadErr := e.load(ctx, projectPath)
	state.project = proj

	recordID := e.startHistory(ctx, state, projectPath, outputPath)
	defer func() {
		e.finishHistory(ctx, state, recordID, result, err)
		if err != nil {
			// The caller reports the error itself.
			state.logger.Debug("export failed",
				logging.String(logging.FieldEventType, "export_failed"),
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
			)
		}
	}()

	if loadErr != nil {
		return nil, loadErr
	}

	ws, err := staging.NewWorkspace(e.scratchRoot, started)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageLoad, "create scratch", "scratch root must be writable", err)
	}
	state.workspace = ws
	defer func() {
		if rmErr := ws.Remove(); rmErr != nil {
			logging.WarnWithContext(state.logger, "scratch cleanup failed", "scratch_cleanup_failed",
				logging.String("scratch_dir", ws.Root),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "run `toneexport scratch clean` to remove leftovers"),
			)
		}
	}()
	state.logger.Info("export started",
		logging.String(logging.FieldEventType, "export_start"),
		logging.String("project", projectPath),
		logging.String("output", outputPath),
		logging.String("scratch_dir", ws.Root),
		logging.Int("video_clips", len(proj.VideoClips())),
		logging.Int("text_clips", len(proj.TextClips())),
	)

	if err := e.fetchClips(ctx, state); err != nil {
		return nil, err
	}
	if err := e.normalizeClips(ctx, state); err != nil {
		return nil, err
	}
	final, err := e.assemble(ctx, state)
	if err != nil {
		return nil, err
	}
	result, err = e.finalize(ctx, state, final, outputPath)
	if err != nil {
		return nil, err
	}
	result.RunID = state.id
	result.Elapsed = e.now().Sub(started)

	state.logger.Info("export completed",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("output", result.OutputPath),
		logging.Int64("size_bytes", result.SizeBytes),
		logging.Float64("duration_seconds", result.DurationSeconds),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (e *Exporter) load(ctx context.Context, projectPath string) (*project.Project, error) {
	ctx = services.WithStage(ctx, StageLoad)
	logger := logging.WithContext(ctx, e.logger)

	proj, err := project.Load(projectPath)
	if err != nil {
		return nil, err
	}
	if len(proj.VideoClips()) == 0 {
		return proj, services.Wrap(services.ErrNoClips, StageLoad, "validate tracks", "project has no video clips", nil)
	}
	audio, hasAudio := proj.AudioClip()
	logger.Debug("project loaded",
		logging.Int("video_clips", len(proj.VideoClips())),
		logging.Bool("audio", hasAudio),
		logging.String("audio_src", audio.Src),
		logging.Int("text_clips", len(proj.TextClips())),
		logging.Int("width", proj.Settings.Width),
		logging.Int("height", proj.Settings.Height),
		logging.Float64("fps", proj.Settings.FPS),
	)
	return proj, nil
}

func (e *Exporter) startHistory(ctx context.Context, state *run, projectPath, outputPath string) string {
	if e.history == nil {
		return ""
	}
	started, err := e.history.Start(ctx, history.Run{
		ID:          state.id,
		ProjectPath: projectPath,
		OutputPath:  outputPath,
		ClipCount:   len(state.project.VideoClips()),
	})
	if err != nil {
		logging.WarnWithContext(state.logger, "history start failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `toneexport history`"),
		)
		return ""
	}
	return started.ID
}

func (e *Exporter) finishHistory(ctx context.Context, state *run, id string, result *Result, runErr error) {
	if e.history == nil || id == "" {
		return
	}
	outcome := history.Outcome{Status: history.StatusSucceeded}
	if runErr != nil {
		outcome.Status = history.StatusFailed
		outcome.ErrorKind = services.Kind(runErr)
		outcome.ErrorMessage = runErr.Error()
	} else if result != nil {
		outcome.SizeBytes = result.SizeBytes
		outcome.DurationSeconds = result.DurationSeconds
	}
	// The run context may already be canceled; the outcome is still worth keeping.
	if err := e.history.Finish(context.WithoutCancel(ctx), id, outcome); err != nil {
		logging.WarnWithContext(state.logger, "history finish failed", "history_write_failed", logging.Error(err))
	}
}

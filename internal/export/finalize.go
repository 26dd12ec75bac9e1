package export

import (
	"context"
	"fmt"
	"time"

	"toneexport/internal/fileutil"
	"toneexport/internal/logging"
	"toneexport/internal/services"
	"toneexport/internal/textutil"
)

// Result summarizes a finished export.
type Result struct {
	RunID           string
	OutputPath      string
	SizeBytes       int64
	DurationSeconds float64
	Width           int
	Height          int
	Elapsed         time.Duration
}

// SizeMB is the output size in binary megabytes.
func (r Result) SizeMB() float64 {
	return float64(r.SizeBytes) / (1024 * 1024)
}

// Summary renders the two-line human summary.
func (r Result) Summary() string {
	return fmt.Sprintf("Size: %.2f MB\nDuration: %.2f s", r.SizeMB(), r.DurationSeconds)
}

func (e *Exporter) finalize(ctx context.Context, state *run, final, outputPath string) (*Result, error) {
	ctx = services.WithStage(ctx, StageFinalize)
	logger := logging.WithContext(ctx, e.logger)

	// Probe before copying so a probe failure leaves nothing at outputPath.
	info, err := e.prober.Inspect(ctx, final)
	if err != nil {
		return nil, services.Wrap(services.ErrEncode, StageFinalize, "probe result", "", err)
	}

	written, err := copyFile(final, outputPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageFinalize, "copy output", "output path must be writable: "+outputPath, err)
	}

	result := &Result{
		OutputPath:      outputPath,
		SizeBytes:       written,
		DurationSeconds: info.DurationSeconds(),
	}
	if stream, ok := info.VideoStream(); ok {
		result.Width, result.Height = stream.Width, stream.Height
	}
	if settings := state.project.Settings; result.Width != 0 && (result.Width != settings.Width || result.Height != settings.Height) {
		logging.WarnWithContext(logger, "output resolution differs from project settings", "resolution_mismatch",
			logging.Int("width", result.Width),
			logging.Int("height", result.Height),
			logging.Int("expected_width", settings.Width),
			logging.Int("expected_height", settings.Height),
		)
	}
	logger.Info("output written",
		logging.String("output", outputPath),
		logging.Int64("size_bytes", written),
	)
	return result, nil
}

func copyFile(src, dst string) (int64, error) {
	return fileutil.CopyFileAtomic(src, dst, 0o644)
}

func sourceExt(src string) string {
	return textutil.Extension(src)
}

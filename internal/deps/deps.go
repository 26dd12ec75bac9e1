package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"toneexport/internal/config"
	"toneexport/internal/services"
)

// Requirement defines an external dependency toneexport relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Version     string
	Detail      string
}

// Requirements lists the binaries an export shells out to.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg, ffprobe := "ffmpeg", "ffprobe"
	if cfg != nil {
		ffmpeg, ffprobe = cfg.Tools.FFmpeg, cfg.Tools.FFprobe
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Normalizes, concatenates, mixes, and overlays clips"},
		{Name: "FFprobe", Command: ffprobe, Description: "Inspects clip streams and durations"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// Verify fails with a configuration error when any required binary is missing.
func Verify(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(
		services.ErrConfiguration,
		"preflight",
		"check binaries",
		"required tools unavailable: "+strings.Join(missing, ", "),
		nil,
	)
}

const versionTimeout = 5 * time.Second

// ProbeVersions fills Version for every available status by running
// "<binary> -version" and keeping the first output line.
func ProbeVersions(ctx context.Context, statuses []Status) {
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		version, err := binaryVersion(ctx, statuses[i].Path)
		if err != nil {
			statuses[i].Detail = fmt.Sprintf("version probe failed: %v", err)
			continue
		}
		statuses[i].Version = version
	}
}

func binaryVersion(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

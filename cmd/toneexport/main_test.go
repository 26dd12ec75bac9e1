package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const stubFFprobe = `#!/bin/sh
if [ "$1" = "-version" ]; then echo "ffprobe version 7.1-stub"; exit 0; fi
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","width":1080,"height":1920,"avg_frame_rate":"30/1"},{"index":1,"codec_type":"audio","channels":2}],"format":{"duration":"5.000000"}}
JSON
`

const stubFFmpeg = `#!/bin/sh
if [ "$1" = "-version" ]; then echo "ffmpeg version 7.1-stub"; exit 0; fi
for last; do :; done
printf 'video-bytes' > "$last"
`

const failingFFmpeg = `#!/bin/sh
echo "frame=    0 fps=0.0" >&2
echo "Error opening output file: Permission denied" >&2
exit 1
`

type cliEnv struct {
	base        string
	configPath  string
	scratchRoot string
	stateDir    string
	ffmpeg      string
	ffprobe     string
}

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TONEEXPORT_FFMPEG", "")
	t.Setenv("TONEEXPORT_FFPROBE", "")

	env := &cliEnv{
		base:        base,
		configPath:  filepath.Join(base, "config.toml"),
		scratchRoot: filepath.Join(base, "scratch"),
		stateDir:    filepath.Join(base, "state"),
		ffmpeg:      filepath.Join(base, "ffmpeg"),
		ffprobe:     filepath.Join(base, "ffprobe"),
	}
	writeExecutable(t, env.ffmpeg, stubFFmpeg)
	writeExecutable(t, env.ffprobe, stubFFprobe)
	env.writeConfig(t, "")
	return env
}

func (e *cliEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	content := fmt.Sprintf(`
[paths]
scratch_root = %q
state_dir = %q

[tools]
ffmpeg = %q
ffprobe = %q
%s`, e.scratchRoot, e.stateDir, e.ffmpeg, e.ffprobe, extra)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliEnv) writeClips(t *testing.T, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(e.base, fmt.Sprintf("clip%d.mp4", i+1))
		if err := os.WriteFile(paths[i], []byte("raw"), 0o644); err != nil {
			t.Fatalf("write clip: %v", err)
		}
	}
	return paths
}

func (e *cliEnv) writeProject(t *testing.T, clips []string) string {
	t.Helper()
	entries := make([]string, len(clips))
	for i, clip := range clips {
		entries[i] = fmt.Sprintf(`{"id": "c%d", "src": %q, "duration": 2.5}`, i+1, clip)
	}
	body := `{"tracks": [{"type": "video", "clips": [` + strings.Join(entries, ",") + `]}],
  "settings": {"fps": 30, "resolution": {"width": 1080, "height": 1920}}}`
	path := filepath.Join(e.base, "project.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", env.configPath}, args...)
	code := execute(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestUsageWithTooFewArguments(t *testing.T) {
	for _, args := range [][]string{{}, {"project.json"}} {
		var stdout, stderr bytes.Buffer
		if code := execute(args, &stdout, &stderr); code != 1 {
			t.Fatalf("args %v: expected exit 1, got %d", args, code)
		}
		requireContains(t, stderr.String(), "Usage:")
		requireContains(t, stderr.String(), "<project-file> <output-file>")
		if strings.Contains(stderr.String(), "Error") {
			t.Fatalf("usage should not print an error line, got:\n%s", stderr.String())
		}
	}
}

func TestExportEndToEndWithStubTools(t *testing.T) {
	env := setupCLIEnv(t)
	project := env.writeProject(t, env.writeClips(t, 2))
	output := filepath.Join(env.base, "out", "final.mp4")

	code, stdout, stderr := runCLI(t, env, "--no-progress", project, output)
	if code != 0 {
		t.Fatalf("expected success, got %d\nstderr:\n%s", code, stderr)
	}
	requireContains(t, stdout, "Exported "+output)
	requireContains(t, stdout, "Size: 0.00 MB")
	requireContains(t, stdout, "Duration: 5.00 s")

	data, err := os.ReadFile(output)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("unexpected output %q (%v)", data, err)
	}
	entries, err := os.ReadDir(env.scratchRoot)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch directory to be removed, found %d entries", len(entries))
	}

	code, stdout, _ = runCLI(t, env, "history")
	if code != 0 {
		t.Fatalf("history failed with %d", code)
	}
	requireContains(t, stdout, "succeeded")
	requireContains(t, stdout, output)
}

func TestProjectNamedLikeSubcommandNeedsPath(t *testing.T) {
	env := setupCLIEnv(t)
	project := env.writeProject(t, env.writeClips(t, 1))
	renamed := filepath.Join(env.base, "history")
	if err := os.Rename(project, renamed); err != nil {
		t.Fatalf("rename project: %v", err)
	}
	t.Chdir(env.base)

	code, stdout, stderr := runCLI(t, env, "--no-progress", "./history", "out.mp4")
	if code != 0 {
		t.Fatalf("expected export of ./history to succeed, got %d\nstderr:\n%s", code, stderr)
	}
	requireContains(t, stdout, "Exported out.mp4")
	if _, err := os.Stat(filepath.Join(env.base, "out.mp4")); err != nil {
		t.Fatalf("expected output file: %v", err)
	}

	code, stdout, _ = runCLI(t, env, "--help")
	if code != 0 {
		t.Fatalf("help failed with %d", code)
	}
	requireContains(t, stdout, "./history")
}

func TestExportFailurePrintsOneErrorLine(t *testing.T) {
	env := setupCLIEnv(t)
	writeExecutable(t, env.ffmpeg, failingFFmpeg)
	project := env.writeProject(t, env.writeClips(t, 1))
	output := filepath.Join(env.base, "final.mp4")

	code, stdout, stderr := runCLI(t, env, project, output)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout != "" {
		t.Fatalf("expected no summary on failure, got %q", stdout)
	}
	requireContains(t, stderr, "export started")
	errorLines := 0
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, "Error") {
			errorLines++
		}
	}
	if errorLines != 1 {
		t.Fatalf("expected a single error line, got:\n%s", stderr)
	}
	if n := strings.Count(stderr, "Permission denied"); n != 1 {
		t.Fatalf("expected the failure to be reported once, found %d times:\n%s", n, stderr)
	}
	requireContains(t, stderr, "Error (encode):")
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("expected no output file after failure")
	}

	_, stdout, _ = runCLI(t, env, "history", "--json")
	requireContains(t, stdout, `"ErrorKind": "encode"`)
}

func TestExportMissingProject(t *testing.T) {
	env := setupCLIEnv(t)
	code, _, stderr := runCLI(t, env, filepath.Join(env.base, "absent.json"), filepath.Join(env.base, "out.mp4"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	requireContains(t, stderr, "Error (parse):")
}

func TestExportFailsFastWithoutTools(t *testing.T) {
	env := setupCLIEnv(t)
	env.ffmpeg = filepath.Join(env.base, "missing-ffmpeg")
	env.writeConfig(t, "")
	project := env.writeProject(t, env.writeClips(t, 1))

	code, _, stderr := runCLI(t, env, project, filepath.Join(env.base, "out.mp4"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	requireContains(t, stderr, "Error (configuration):")
	requireContains(t, stderr, "FFmpeg")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLIEnv(t)
	code, stdout, stderr := runCLI(t, env, "check")
	if code != 0 {
		t.Fatalf("check failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "ffmpeg version 7.1-stub")
	requireContains(t, stdout, "ffprobe version 7.1-stub")

	env.ffprobe = filepath.Join(env.base, "missing-ffprobe")
	env.writeConfig(t, "")
	code, stdout, _ = runCLI(t, env, "check")
	if code != 1 {
		t.Fatalf("expected check to fail without ffprobe, got %d", code)
	}
	requireContains(t, stdout, "missing")
}

func TestConfigCommands(t *testing.T) {
	env := setupCLIEnv(t)

	code, stdout, _ := runCLI(t, env, "config", "path")
	if code != 0 {
		t.Fatalf("config path failed with %d", code)
	}
	requireContains(t, stdout, env.configPath)

	code, stdout, _ = runCLI(t, env, "config", "show")
	if code != 0 {
		t.Fatalf("config show failed with %d", code)
	}
	requireContains(t, stdout, env.ffmpeg)
	requireContains(t, stdout, "max_redirects = 20")

	target := filepath.Join(env.base, "generated", "config.toml")
	code, stdout, _ = runCLI(t, env, "config", "init", "--path", target)
	if code != 0 {
		t.Fatalf("config init failed with %d", code)
	}
	requireContains(t, stdout, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}
	if code, _, stderr := runCLI(t, env, "config", "init", "--path", target); code != 1 || !strings.Contains(stderr, "already exists") {
		t.Fatalf("expected refusal to overwrite, got %d %q", code, stderr)
	}
}

func TestLogFlagsAreValidated(t *testing.T) {
	env := setupCLIEnv(t)
	code, _, stderr := runCLI(t, env, "--log-format", "xml", "config", "show")
	if code != 1 {
		t.Fatalf("expected invalid log format to fail, got %d", code)
	}
	requireContains(t, stderr, "logging.format")
}

func TestScratchClean(t *testing.T) {
	env := setupCLIEnv(t)
	stale := filepath.Join(env.scratchRoot, "export-1")
	unrelated := filepath.Join(env.scratchRoot, "keep-me")
	old := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{stale, unrelated} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.Chtimes(dir, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	code, stdout, _ := runCLI(t, env, "scratch", "list")
	if code != 0 {
		t.Fatalf("scratch list failed with %d", code)
	}
	requireContains(t, stdout, "export-1")

	code, stdout, _ = runCLI(t, env, "scratch", "clean", "--older-than", "1h")
	if code != 0 {
		t.Fatalf("scratch clean failed with %d", code)
	}
	requireContains(t, stdout, "Removed 1 scratch")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected stale scratch directory to be removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatal("unrelated directories must be left alone")
	}
}

func TestCacheStatsAndPrune(t *testing.T) {
	env := setupCLIEnv(t)
	env.writeConfig(t, "\n[cache]\nenabled = true\nmax_gib = 1\n")

	code, stdout, stderr := runCLI(t, env, "cache", "stats")
	if code != 0 {
		t.Fatalf("cache stats failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "Entries: 0")
	requireContains(t, stdout, "enabled: yes")

	code, stdout, _ = runCLI(t, env, "cache", "prune")
	if code != 0 {
		t.Fatalf("cache prune failed with %d", code)
	}
	requireContains(t, stdout, "Removed 0")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLIEnv(t)
	env.writeConfig(t, "\n[history]\nenabled = false\n")
	code, stdout, _ := runCLI(t, env, "history")
	if code != 0 {
		t.Fatalf("history failed with %d", code)
	}
	requireContains(t, stdout, "disabled")
}

// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and decodes streams and container metadata into a
// Result. The Prober interface lets the export pipeline swap in a fake during
// tests. Helper methods on Result expose duration, geometry, frame rate, and
// stream presence without callers parsing ffprobe's string fields.
package ffprobe

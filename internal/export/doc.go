// Package export runs the five export stages for one project.
//
// An Exporter loads the project, fetches every video clip source into a
// per-run scratch workspace, normalizes each clip to the project geometry,
// assembles the clips into one file (optionally mixing in a music track and
// burning in text overlays), and copies the result to the caller's output
// path. The scratch workspace is removed on every exit path.
//
// External tools are reached through ffmpeg.Runner and ffprobe.Prober and
// downloads through Fetcher, so tests substitute fakes for all three.
package export

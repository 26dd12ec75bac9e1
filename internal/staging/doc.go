// Package staging owns the per-run scratch workspace.
//
// Every export gets an export-<unix-millis> directory holding downloaded
// sources, normalized clips, the concat manifest, and intermediate renders.
// CleanStale and ListDirectories operate only on entries with that prefix so a
// shared scratch root such as the system temp directory is safe to scan.
package staging

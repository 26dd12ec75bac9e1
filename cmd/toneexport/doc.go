// Command toneexport renders a Tone project file into a single video.
//
//	toneexport <project-file> <output-file>
//
// Maintenance subcommands inspect the toolchain (check), the configuration
// (config), past runs (history), the download cache (cache), and leftover
// scratch directories (scratch).
package main

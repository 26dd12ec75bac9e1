// Package services defines shared utilities consumed by the export stages and
// the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and clip identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that keeps the failure
//     category (parse, download, encode, mix, no clips) matchable with
//     errors.Is while the message carries stage and operation context.
//
// Use these helpers when wiring new stage logic so error classification and
// log correlation stay uniform across the pipeline.
package services

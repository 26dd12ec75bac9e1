// Package ffmpeg builds and runs ffmpeg invocations.
//
// Filter, Chain, and Graph values serialize to filtergraph syntax in one place,
// applying the option-value and filtergraph escaping levels so callers never
// quote strings by hand. Each pipeline operation is a Command struct
// (NormalizeClip, ConcatCopy, MixAudio, BurnText) whose Args method yields the
// complete argument vector. A Runner executes commands; ExecRunner shells out
// and captures stderr for diagnostics.
package ffmpeg

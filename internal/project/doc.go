// Package project loads export project descriptions.
//
// A project is a list of typed tracks plus output settings. Load accepts JSON
// (the default) and YAML, fills every absent field with its documented default,
// and exposes the first video, audio, and text track through accessors so the
// export pipeline never inspects raw track data.
package project

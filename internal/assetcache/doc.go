// Package assetcache keeps downloaded project assets between exports so a
// re-export of the same project does not hit the network again. Entries are
// keyed by the SHA-256 of the source URL and stored as a data file plus a JSON
// sidecar recording where it came from.
//
// # Size Management
//
// The cache enforces two constraints: a configurable size budget
// (cache.max_gib) and a 20% free-space floor on the underlying volume. When
// either limit is exceeded the manager prunes least recently used entries
// first; a cache hit refreshes an entry's modification time. Manual pruning is
// available via `toneexport cache prune`.
//
// A file lock on the cache root serializes concurrent exporters.
package assetcache

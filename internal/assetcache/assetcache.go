package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"toneexport/internal/config"
	"toneexport/internal/fileutil"
	"toneexport/internal/logging"
)

const (
	// freeSpaceFloor is the minimum free-space ratio we allow before pruning (e.g., 0.20 => 80% full).
	freeSpaceFloor = 0.20

	lockFileName   = ".lock"
	lockRetryDelay = 50 * time.Millisecond
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Manager stores and prunes cached assets.
type Manager struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
	statfs   statfsFunc
	lock     *flock.Flock
}

// Stats describes current cache usage.
type Stats struct {
	Entries      int
	TotalBytes   int64
	MaxBytes     int64
	FreeBytes    uint64
	TotalFSBytes uint64
	FreeRatio    float64
	// EntrySummaries lists entries most recently used first.
	EntrySummaries []EntrySummary
}

// EntrySummary surfaces one cached asset for the CLI.
type EntrySummary struct {
	Key        string
	URL        string
	SizeBytes  int64
	LastUsedAt time.Time
}

// NewManager builds a cache manager when enabled; returns nil when caching is disabled or misconfigured.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if cfg == nil || !cfg.Cache.Enabled {
		return nil
	}
	return Open(cfg.Cache.Dir, cfg.CacheMaxBytes(), logger)
}

// Open returns a manager for root regardless of the enabled flag. It returns
// nil when root is empty or maxBytes is not positive.
func Open(root string, maxBytes int64, logger *slog.Logger) *Manager {
	root = strings.TrimSpace(root)
	if root == "" || maxBytes <= 0 {
		return nil
	}
	return &Manager{
		root:     root,
		maxBytes: maxBytes,
		logger:   logging.NewComponentLogger(logger, "assetcache"),
		statfs:   realStatfs,
		lock:     flock.New(filepath.Join(root, lockFileName)),
	}
}

// Root returns the cache directory.
func (m *Manager) Root() string {
	if m == nil {
		return ""
	}
	return m.root
}

// Key returns the cache key for a source URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) dataPath(key string) string { return filepath.Join(m.root, key) }

// Lookup copies the cached asset for url to dest. It reports false without
// error on a miss.
func (m *Manager) Lookup(ctx context.Context, url, dest string) (bool, error) {
	if m == nil {
		return false, nil
	}
	unlock, err := m.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	key := Key(url)
	meta, ok, err := loadMetadata(m.root, key)
	if err != nil {
		m.logger.WarnContext(ctx, "asset cache metadata unreadable; treating as miss",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldEventType, "assetcache_metadata_invalid"),
		)
		return false, nil
	}
	if !ok || meta.URL != strings.TrimSpace(url) {
		return false, nil
	}
	src := m.dataPath(key)
	if _, err := os.Stat(src); err != nil {
		return false, nil
	}
	if err := fileutil.CopyFile(src, dest); err != nil {
		return false, fmt.Errorf("assetcache: restore entry: %w", err)
	}
	now := time.Now()
	_ = os.Chtimes(src, now, now)

	m.logger.DebugContext(ctx, "asset cache hit",
		logging.String("key", key),
		logging.String("dest", dest),
	)
	return true, nil
}

// Store copies src into the cache under url and prunes older entries. The
// entry just stored is never pruned unless it alone exceeds the limits.
func (m *Manager) Store(ctx context.Context, url, src, contentType string) error {
	if m == nil {
		return nil
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("assetcache: empty url")
	}
	unlock, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	key := Key(url)
	size, err := fileutil.CopyFileAtomic(src, m.dataPath(key), 0o644)
	if err != nil {
		return fmt.Errorf("assetcache: copy entry: %w", err)
	}
	meta := EntryMetadata{
		Version:     metadataVersion,
		URL:         strings.TrimSpace(url),
		ContentType: strings.TrimSpace(contentType),
		SizeBytes:   size,
		StoredAt:    time.Now().UTC(),
	}
	if err := writeMetadata(m.root, key, meta); err != nil {
		_ = os.Remove(m.dataPath(key))
		return err
	}

	if err := m.prune(ctx, key); err != nil {
		return fmt.Errorf("assetcache: prune after store: %w", err)
	}
	m.logger.DebugContext(ctx, "stored asset cache entry",
		logging.String("key", key),
		logging.Int64("size_bytes", size),
	)
	return nil
}

// Prune removes entries based on size and free-space thresholds.
func (m *Manager) Prune(ctx context.Context) error {
	if m == nil {
		return nil
	}
	unlock, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return m.prune(ctx, "")
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	entries, totalSize, err := m.scan(ctx)
	if err != nil {
		return s, err
	}
	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return s, fmt.Errorf("assetcache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	details := make([]EntrySummary, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		details = append(details, EntrySummary{
			Key:        entry.key,
			URL:        entry.url,
			SizeBytes:  entry.sizeBytes,
			LastUsedAt: entry.modTime,
		})
	}
	return Stats{
		Entries:        len(entries),
		TotalBytes:     totalSize,
		MaxBytes:       m.maxBytes,
		FreeBytes:      freeFS,
		TotalFSBytes:   totalFS,
		FreeRatio:      ratio,
		EntrySummaries: details,
	}, nil
}

func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("assetcache: ensure root: %w", err)
	}
	locked, err := m.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("assetcache: acquire lock: %w", err)
	}
	if !locked {
		return nil, errors.New("assetcache: lock not acquired")
	}
	return func() { _ = m.lock.Unlock() }, nil
}

// prune removes least recently used entries until both size and free-space
// thresholds are satisfied. keepKey is skipped.
func (m *Manager) prune(ctx context.Context, keepKey string) error {
	entries, totalSize, err := m.scan(ctx)
	if err != nil {
		return err
	}

	for len(entries) > 0 {
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if totalSize <= m.maxBytes && freeOK {
			return nil
		}
		oldest := entries[0]
		entries = entries[1:]
		if oldest.key == keepKey {
			if len(entries) == 0 {
				m.logger.WarnContext(ctx, "asset cache over limits with only the active entry",
					logging.String("key", keepKey),
					logging.String(logging.FieldEventType, "assetcache_over_limit"),
					logging.String(logging.FieldErrorHint, "raise cache.max_gib or free disk space"),
				)
			}
			continue
		}
		if err := m.removeEntry(oldest.key); err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "pruned asset cache entry",
			logging.String("key", oldest.key),
			logging.String("url", oldest.url),
			logging.Int64("entry_size_bytes", oldest.sizeBytes),
		)
		totalSize -= oldest.sizeBytes
	}
	return nil
}

func (m *Manager) removeEntry(key string) error {
	for _, path := range []string{m.dataPath(key), metadataPath(m.root, key)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("assetcache: remove %q: %w", path, err)
		}
	}
	return nil
}

type cacheEntry struct {
	key       string
	url       string
	sizeBytes int64
	modTime   time.Time
}

// scan lists entries oldest first.
func (m *Manager) scan(ctx context.Context) ([]cacheEntry, int64, error) {
	entries := make([]cacheEntry, 0)
	var total int64
	rootEntries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, 0, nil
		}
		return nil, 0, fmt.Errorf("assetcache: list root: %w", err)
	}
	for _, entry := range rootEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, metadataSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			m.logger.WarnContext(ctx, "assetcache: skip entry; excluded from stats and pruning",
				logging.String("key", name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "assetcache_entry_skipped"),
				logging.String(logging.FieldErrorHint, "inspect cache directory permissions or remove the corrupted entry"),
			)
			continue
		}
		var url string
		if meta, ok, err := loadMetadata(m.root, name); err == nil && ok {
			url = meta.URL
		}
		total += info.Size()
		entries = append(entries, cacheEntry{key: name, url: url, sizeBytes: info.Size(), modTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

func (m *Manager) freeSpaceOK() (bool, error) {
	total, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("assetcache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	ratio := float64(free) / float64(total)
	return ratio >= freeSpaceFloor, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

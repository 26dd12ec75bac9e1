package assetcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toneexport/internal/fileutil"
)

const (
	metadataVersion = 1
	metadataSuffix  = ".json"
)

// EntryMetadata is the sidecar stored next to each cached asset.
type EntryMetadata struct {
	Version     int       `json:"version"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	StoredAt    time.Time `json:"stored_at"`
}

func metadataPath(root, key string) string {
	return filepath.Join(root, key+metadataSuffix)
}

func writeMetadata(root, key string, meta EntryMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("assetcache: encode metadata: %w", err)
	}
	if _, err := fileutil.WriteAtomic(metadataPath(root, key), 0o644, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("assetcache: write metadata: %w", err)
	}
	return nil
}

func loadMetadata(root, key string) (EntryMetadata, bool, error) {
	payload, err := os.ReadFile(metadataPath(root, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EntryMetadata{}, false, nil
		}
		return EntryMetadata{}, false, fmt.Errorf("assetcache: read metadata: %w", err)
	}
	var meta EntryMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return EntryMetadata{}, true, fmt.Errorf("assetcache: decode metadata: %w", err)
	}
	if meta.Version != metadataVersion {
		return EntryMetadata{}, true, fmt.Errorf("assetcache: unsupported metadata version %d", meta.Version)
	}
	return meta, true, nil
}

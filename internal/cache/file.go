package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/talentscout/scout/internal/fileutil"
)

// cacheFilePermissions is the permission mode for cache files.
const cacheFilePermissions = 0o640

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// FileStorage persists a PriceCache as JSON.
type FileStorage struct {
	path string
}

// NewFileStorage creates a storage backed by path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Save writes the cache atomically.
func (s *FileStorage) Save(cache *PriceCache) error {
	cache.mu.RLock()
	data, err := json.MarshalIndent(cache, "", "  ")
	cache.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, cacheFilePermissions); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache. A missing file is an empty cache. A corrupt file is
// moved aside and reported with ErrCorruptCache alongside an empty cache.
func (s *FileStorage) Load() (*PriceCache, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewPriceCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	cache := NewPriceCache()
	if err := json.Unmarshal(data, cache); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return NewPriceCache(), fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptCache, err, renameErr)
		}
		return NewPriceCache(), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, corruptPath)
	}
	if cache.Entries == nil {
		cache.Entries = make(map[string]PriceEntry)
	}
	return cache, nil
}

// Exists reports whether the cache file exists.
func (s *FileStorage) Exists() bool {
	return fileutil.Exists(s.path)
}

// Path returns the cache file path.
func (s *FileStorage) Path() string {
	return s.path
}

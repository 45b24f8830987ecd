package session

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/talentscout/scout/internal/fileutil"
)

// FlagStore persists whether the last session ended connected.
type FlagStore interface {
	Connected() bool
	SetConnected(connected bool) error
}

const (
	// flagFileName is the flag file under the scout home.
	flagFileName = "wallet_connected"

	flagFilePermissions = 0o600
)

var flagValue = []byte("true\n")

// FileFlag stores the flag as a file under the scout home. The file exists
// only while the flag is set.
type FileFlag struct {
	path string
}

// NewFileFlag returns a FileFlag rooted at home.
func NewFileFlag(home string) *FileFlag {
	return &FileFlag{path: filepath.Join(home, flagFileName)}
}

// Path returns the flag file location.
func (f *FileFlag) Path() string {
	return f.path
}

// Connected reports whether the flag is set. Unreadable files count as unset.
func (f *FileFlag) Connected() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(data), bytes.TrimSpace(flagValue))
}

// SetConnected sets or clears the flag.
func (f *FileFlag) SetConnected(connected bool) error {
	if !connected {
		if err := fileutil.RemoveIfExists(f.path); err != nil {
			return fmt.Errorf("clearing connected flag: %w", err)
		}
		return nil
	}
	if err := fileutil.WriteAtomic(f.path, flagValue, flagFilePermissions); err != nil {
		return fmt.Errorf("writing connected flag: %w", err)
	}
	return nil
}

// MemoryFlag keeps the flag for the life of the process.
type MemoryFlag struct {
	mu        sync.Mutex
	connected bool
}

// Connected reports whether the flag is set.
func (f *MemoryFlag) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected sets or clears the flag.
func (f *MemoryFlag) SetConnected(connected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
	return nil
}

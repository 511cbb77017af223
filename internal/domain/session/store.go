package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// zstdMagic prefixes every zstd frame
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Preferences is the single snapshot kept for a browsing session
type Preferences struct {
	Positions map[string]types.Bounds `json:"positions"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewPreferences returns an empty snapshot
func NewPreferences() *Preferences {
	return &Preferences{Positions: make(map[string]types.Bounds)}
}

// Clone returns a deep copy
func (p *Preferences) Clone() *Preferences {
	out := &Preferences{
		Positions: make(map[string]types.Bounds, len(p.Positions)),
		UpdatedAt: p.UpdatedAt,
	}
	for k, v := range p.Positions {
		out.Positions[k] = v
	}
	return out
}

// Store persists preferences
type Store interface {
	Load(ctx context.Context) (*Preferences, error)
	Save(ctx context.Context, prefs *Preferences) error
}

// FileStore keeps preferences in one JSON file, optionally zstd-compressed
type FileStore struct {
	path     string
	compress bool
	mu       sync.Mutex
}

// NewFileStore creates a store writing to path
func NewFileStore(path string, compress bool) *FileStore {
	return &FileStore{path: path, compress: compress}
}

// Path returns the backing file
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the snapshot; a missing file yields empty preferences
func (f *FileStore) Load(ctx context.Context) (*Preferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return NewPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	// Files written with compression off stay readable after turning it on, and vice versa
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder: %w", err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress preferences: %w", err)
		}
	}

	prefs := NewPreferences()
	if err := sonic.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if prefs.Positions == nil {
		prefs.Positions = make(map[string]types.Bounds)
	}
	return prefs, nil
}

// Save writes the snapshot atomically through a temp file and rename
func (f *FileStore) Save(ctx context.Context, prefs *Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if f.compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("failed to create encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

// MemoryStore keeps preferences in memory, for tests and ephemeral sessions
type MemoryStore struct {
	mu    sync.Mutex
	prefs *Preferences
	saves int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: NewPreferences()}
}

// Load returns a copy of the stored snapshot
func (m *MemoryStore) Load(ctx context.Context) (*Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.Clone(), nil
}

// Save replaces the stored snapshot
func (m *MemoryStore) Save(ctx context.Context, prefs *Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save was called
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

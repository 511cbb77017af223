package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

type fakeWindows struct {
	mu      sync.Mutex
	windows map[string]*types.Window
}

func newFakeWindows() *fakeWindows {
	return &fakeWindows{windows: make(map[string]*types.Window)}
}

func (f *fakeWindows) Get(windowID string) (*types.Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[windowID]
	if !ok {
		return nil, false
	}
	return w.Clone(), true
}

func (f *fakeWindows) put(w *types.Window) {
	f.mu.Lock()
	f.windows[w.ID] = w
	f.mu.Unlock()
}

func (f *fakeWindows) move(windowID string, b types.Bounds) {
	f.mu.Lock()
	f.windows[windowID].Bounds = b
	f.mu.Unlock()
}

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (*Preferences, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Preferences), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, prefs *Preferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "nested", "prefs.json")
		store := NewFileStore(path, compress)
		ctx := context.Background()

		prefs := NewPreferences()
		prefs.Positions["terminal"] = types.Bounds{X: 10, Y: 20, W: 700, H: 480}
		prefs.UpdatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		require.NoError(t, store.Save(ctx, prefs))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		if compress {
			assert.Equal(t, zstdMagic, raw[:4])
		} else {
			assert.Contains(t, string(raw), `"terminal"`)
		}

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefs.Positions, loaded.Positions)
		assert.True(t, prefs.UpdatedAt.Equal(loaded.UpdatedAt))
	}
}

func TestFileStoreReadsEitherEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	ctx := context.Background()

	prefs := NewPreferences()
	prefs.Positions["notes"] = types.Bounds{X: 1, Y: 2, W: 400, H: 300}
	require.NoError(t, NewFileStore(path, true).Save(ctx, prefs))

	loaded, err := NewFileStore(path, false).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs.Positions, loaded.Positions)
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), false)

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prefs.Positions)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path, false).Load(context.Background())
	assert.Error(t, err)
}

func TestCaptureAndSavedPosition(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "terminal", Bounds: types.Bounds{X: 5, Y: 5, W: 600, H: 400}})
	m := NewManager(NewMemoryStore(), windows, time.Hour, nil)

	assert.True(t, m.Capture("win_1", "terminal"))
	assert.False(t, m.Capture("win_1", "terminal"), "unchanged bounds are not recaptured")
	assert.False(t, m.Capture("win_missing", "terminal"))

	b, ok := m.SavedPosition("terminal")
	require.True(t, ok)
	assert.Equal(t, types.Bounds{X: 5, Y: 5, W: 600, H: 400}, b)

	_, ok = m.SavedPosition("notes")
	assert.False(t, ok)
}

func TestCaptureSkipsMaximizedAndMinimized(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "terminal", Maximized: true, Bounds: types.Bounds{W: 1920, H: 1032}})
	windows.put(&types.Window{ID: "win_2", AppID: "notes", Minimized: true, Bounds: types.Bounds{W: 400, H: 300}})
	m := NewManager(NewMemoryStore(), windows, time.Hour, nil)

	assert.False(t, m.Capture("win_1", "terminal"))
	assert.False(t, m.Capture("win_2", "notes"))
}

func TestAutoSaveTicker(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "terminal", Bounds: types.Bounds{X: 1, Y: 1, W: 500, H: 400}})
	store := NewMemoryStore()
	m := NewManager(store, windows, 10*time.Millisecond, nil)

	m.Register("win_1", "terminal")
	m.Register("win_1", "terminal")
	assert.True(t, m.Registered("win_1"))

	windows.move("win_1", types.Bounds{X: 200, Y: 150, W: 500, H: 400})
	assert.Eventually(t, func() bool {
		b, ok := m.SavedPosition("terminal")
		return ok && b.X == 200
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return store.Saves() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close(context.Background()))
	assert.False(t, m.Registered("win_1"))
}

func TestUnregisterPerformsFinalSave(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "notes", Bounds: types.Bounds{X: 30, Y: 40, W: 400, H: 300}})
	store := NewMemoryStore()
	m := NewManager(store, windows, time.Hour, nil)

	m.Register("win_1", "notes")
	assert.True(t, m.Unregister("win_1"))
	assert.False(t, m.Unregister("win_1"))
	assert.False(t, m.Registered("win_1"))

	assert.Equal(t, 1, store.Saves())
	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Bounds{X: 30, Y: 40, W: 400, H: 300}, persisted.Positions["notes"])
}

func TestSaveSkipsCleanSnapshot(t *testing.T) {
	store := new(MockStore)
	m := NewManager(store, newFakeWindows(), time.Hour, nil)

	require.NoError(t, m.Save(context.Background()))
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveErrorKeepsSnapshotDirty(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "terminal", Bounds: types.Bounds{W: 500, H: 400}})
	store := new(MockStore)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	m := NewManager(store, windows, time.Hour, nil)

	m.Capture("win_1", "terminal")
	assert.Error(t, m.Save(context.Background()))
	assert.NoError(t, m.Save(context.Background()))
	assert.NoError(t, m.Save(context.Background()))

	store.AssertNumberOfCalls(t, "Save", 2)
	assert.NotNil(t, m.Stats().LastSaved)
}

func TestLoad(t *testing.T) {
	persisted := NewPreferences()
	persisted.Positions["settings"] = types.Bounds{X: 9, Y: 9, W: 800, H: 560}
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(persisted, nil)
	m := NewManager(store, newFakeWindows(), time.Hour, nil)

	require.NoError(t, m.Load(context.Background()))
	b, ok := m.SavedPosition("settings")
	require.True(t, ok)
	assert.Equal(t, 800, b.W)
	assert.Equal(t, 1, m.Stats().SavedPositions)

	failing := new(MockStore)
	failing.On("Load", mock.Anything).Return(nil, errors.New("permission denied"))
	assert.Error(t, NewManager(failing, newFakeWindows(), time.Hour, nil).Load(context.Background()))
}

func TestForget(t *testing.T) {
	windows := newFakeWindows()
	windows.put(&types.Window{ID: "win_1", AppID: "terminal", Bounds: types.Bounds{W: 500, H: 400}})
	m := NewManager(NewMemoryStore(), windows, time.Hour, nil)

	m.Capture("win_1", "terminal")
	m.Forget("terminal")
	_, ok := m.SavedPosition("terminal")
	assert.False(t, ok)
}

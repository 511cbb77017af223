package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Root is the top of the file explorer's virtual tree
const Root = "/"

// Application directory names under the user config dir
const (
	appDir        = "webdesk"
	prefsFile     = "preferences.json"
	manifestsDir  = "apps"
	compressedExt = ".zst"
)

// Clean normalizes a file explorer path: rooted, no dot segments, no
// trailing slash. Empty means the root.
func Clean(p string) string {
	if p == "" {
		return Root
	}
	return path.Clean(Root + strings.TrimLeft(p, "/"))
}

// ConfigDir returns the per-user directory for desktop state
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDir)
}

// DefaultPrefsPath returns where window position preferences are kept
func DefaultPrefsPath(compressed bool) string {
	name := prefsFile
	if compressed {
		name += compressedExt
	}
	return filepath.Join(ConfigDir(), name)
}

// DefaultManifestsDir returns where app manifests are discovered
func DefaultManifestsDir() string {
	return filepath.Join(ConfigDir(), manifestsDir)
}

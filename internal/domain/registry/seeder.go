package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// ManifestPattern matches app manifest files relative to the manifests dir
const ManifestPattern = "**/*.app.{yaml,yml,toml}"

// Seeder loads app registrations into a Manager
type Seeder struct {
	manager *Manager
	dir     string
	logger  *zap.Logger
}

// NewSeeder creates a new app seeder reading manifests from dir
func NewSeeder(manager *Manager, dir string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		manager: manager,
		dir:     dir,
		logger:  logger,
	}
}

// SeedBuiltins registers the built-in catalog
func (s *Seeder) SeedBuiltins() error {
	for _, reg := range Builtins() {
		if err := s.manager.Register(reg); err != nil {
			return fmt.Errorf("failed to register builtin %s: %w", reg.ID, err)
		}
	}
	return nil
}

// SeedManifests registers every manifest under the seeder directory.
// A missing directory is not an error; individual bad manifests are logged and skipped.
func (s *Seeder) SeedManifests() (loaded, failed int, err error) {
	if s.dir == "" {
		return 0, 0, nil
	}
	if _, statErr := os.Stat(s.dir); os.IsNotExist(statErr) {
		s.logger.Warn("Manifests directory not found", zap.String("dir", s.dir))
		return 0, 0, nil
	}

	var ok, bad int64
	conf := fastwalk.Config{Follow: false}

	// fastwalk invokes the callback concurrently
	err = fastwalk.Walk(&conf, s.dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(s.dir, path)
		if relErr != nil {
			return nil
		}
		if matched, _ := doublestar.Match(ManifestPattern, filepath.ToSlash(rel)); !matched {
			return nil
		}

		if loadErr := s.loadManifest(path); loadErr != nil {
			s.logger.Warn("Failed to load manifest", zap.String("path", rel), zap.Error(loadErr))
			atomic.AddInt64(&bad, 1)
			return nil
		}
		s.logger.Debug("Loaded manifest", zap.String("path", rel))
		atomic.AddInt64(&ok, 1)
		return nil
	})
	if err != nil {
		return int(ok), int(bad), fmt.Errorf("failed to walk manifests: %w", err)
	}

	s.logger.Info("Seeding complete", zap.Int64("loaded", ok), zap.Int64("failed", bad))
	return int(ok), int(bad), nil
}

func (s *Seeder) loadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	reg, err := ParseManifest(path, data)
	if err != nil {
		return err
	}
	return s.manager.Register(reg)
}

// ParseManifest decodes a manifest, choosing the format from the file extension
func ParseManifest(name string, data []byte) (types.AppRegistration, error) {
	var reg types.AppRegistration

	switch {
	case strings.HasSuffix(name, ".toml"):
		if err := toml.Unmarshal(data, &reg); err != nil {
			return reg, fmt.Errorf("invalid TOML manifest: %w", err)
		}
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return reg, fmt.Errorf("invalid YAML manifest: %w", err)
		}
	default:
		return reg, fmt.Errorf("unsupported manifest format: %s", filepath.Base(name))
	}

	if reg.ID == "" {
		return reg, fmt.Errorf("manifest %s has empty id field", filepath.Base(name))
	}
	if reg.Name == "" {
		reg.Name = reg.ID
	}
	return reg, nil
}

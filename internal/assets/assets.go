// Package assets resolves .x scenes from loose directories and GRF archives
// and caches both the raw bytes and the parsed scenes.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/xofkit/pkg/grf"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

// ErrNotFound is returned when no search path or archive holds an asset.
var ErrNotFound = errors.New("asset not found")

// Manager handles asset loading from directories and GRF files.
type Manager struct {
	searchPaths []string
	archives    []*grf.Archive
	files       *Cache[[]byte]
	scenes      *Cache[*xfile.Scene]
	opts        xfile.Options
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new asset manager that parses scenes with opts.
func NewManager(opts xfile.Options, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = log
	}
	return &Manager{
		files:  NewCache[[]byte](),
		scenes: NewCache[*xfile.Scene](),
		opts:   opts,
		log:    log,
	}
}

// AddSearchPath adds a directory of loose files. Directories are searched
// in the order added, before any archive.
func (m *Manager) AddSearchPath(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding search path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding search path: %s is not a directory", dir)
	}

	m.mu.Lock()
	m.searchPaths = append(m.searchPaths, dir)
	m.mu.Unlock()
	return nil
}

// AddArchive adds a GRF archive to the manager.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()

	m.log.Debug("added archive", zap.String("path", path), zap.Int("files", len(archive.List())))
	return nil
}

func cacheKey(path string) string {
	return strings.ToLower(filepath.ToSlash(path))
}

// Load loads a file from the search paths or archives.
func (m *Manager) Load(path string) ([]byte, error) {
	key := cacheKey(path)
	if data, ok := m.files.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if filepath.IsAbs(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		m.files.Set(key, data)
		return data, nil
	}

	for _, dir := range m.searchPaths {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		if err == nil {
			m.files.Set(key, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	// Search archives in reverse order
	for i := len(m.archives) - 1; i >= 0; i-- {
		if !m.archives[i].Contains(path) {
			continue
		}
		data, err := m.archives[i].Read(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s from %s: %w", path, m.archives[i].Path(), err)
		}
		m.files.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// LoadScene loads and parses an X file. Parsed scenes are cached and shared
// between callers; they must not be modified.
func (m *Manager) LoadScene(path string) (*xfile.Scene, error) {
	key := cacheKey(path)
	if scene, ok := m.scenes.Get(key); ok {
		return scene, nil
	}

	data, err := m.Load(path)
	if err != nil {
		return nil, err
	}
	scene, err := xfile.ParseWithOptions(data, m.opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m.scenes.Set(key, scene)
	m.log.Debug("loaded scene", zap.String("path", path), zap.Int("meshes", len(scene.Meshes())))
	return scene, nil
}

// LoadScenes parses paths with up to workers files in flight and returns the
// scenes in input order. The first failure cancels files not yet started.
func (m *Manager) LoadScenes(ctx context.Context, paths []string, workers int) ([]*xfile.Scene, error) {
	scenes := make([]*xfile.Scene, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scene, err := m.LoadScene(path)
			if err != nil {
				return err
			}
			scenes[i] = scene
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scenes, nil
}

// List returns every .x asset visible to the manager, sorted and without
// duplicates. Loose files are listed relative to their search path.
func (m *Manager) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	add := func(p string) {
		if key := cacheKey(p); !seen[key] {
			seen[key] = true
			result = append(result, p)
		}
	}

	for _, dir := range m.searchPaths {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".x") {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			add(filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
	}
	for _, archive := range m.archives {
		for _, p := range archive.ListExt(".x") {
			add(p)
		}
	}

	sort.Strings(result)
	return result, nil
}

// Stats returns hit and miss counts for the scene cache.
func (m *Manager) Stats() (hits, misses int64) {
	return m.scenes.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.files.Clear()
	m.scenes.Clear()
}

package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"driftwatch/pkg/logging"

	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"
)

// ErrNotFound is returned when no file exists for a resource UUID.
var ErrNotFound = errors.New("resource not found")

// DefaultFetchConcurrency bounds parallel file reads in Fetch.
const DefaultFetchConcurrency = 8

// supportedExtensions lists resource file extensions in lookup order.
var supportedExtensions = []string{".yaml", ".yml", ".json"}

// Store persists resources as one YAML or JSON file per resource, named
// after the resource UUID, inside a single directory.
type Store struct {
	mu          sync.RWMutex
	dir         string
	concurrency int
}

// NewStore creates a Store rooted at dir. The directory is created on first Save.
func NewStore(dir string) *Store {
	return &Store{
		dir:         dir,
		concurrency: DefaultFetchConcurrency,
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// SetConcurrency changes the number of files Fetch reads in parallel.
func (s *Store) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.concurrency = n
	s.mu.Unlock()
}

// Save validates res and writes it as <uuid>.yaml, replacing any previous
// file for the same UUID regardless of its extension.
func (s *Store) Save(res Resource) error {
	if err := Validate(res); err != nil {
		return err
	}

	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode resource %s: %w", res.UUID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	for _, ext := range supportedExtensions[1:] {
		stale := filepath.Join(s.dir, res.UUID+ext)
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", stale, err)
		}
	}

	filePath := filepath.Join(s.dir, res.UUID+".yaml")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	logging.Debug("ResourceStore", "Saved %s (%s) to %s", res.UUID, res.Type, filePath)
	return nil
}

// Load reads the resource with the given UUID.
func (s *Store) Load(id string) (Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *Store) load(id string) (Resource, error) {
	path, err := s.findFile(id)
	if err != nil {
		return Resource{}, err
	}
	return readResourceFile(path)
}

// Delete removes the resource file for the given UUID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.findFile(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	logging.Debug("ResourceStore", "Deleted %s from %s", id, path)
	return nil
}

// List returns the UUIDs of all stored resources, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := UUIDFromPath(entry.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadAll reads every stored resource.
func (s *Store) LoadAll(ctx context.Context) ([]Resource, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, ids)
}

// Fetch reads the requested resources in parallel. UUIDs without a file are
// omitted from the result, matching the fetcher contract where a missing
// resource means it was deleted upstream. Any read or decode error fails the
// whole call. Results keep the order of uuids.
func (s *Store) Fetch(ctx context.Context, uuids []string) ([]Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]*Resource, len(uuids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range uuids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.load(id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = &res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch %d resources: %w", len(uuids), err)
	}

	resources := make([]Resource, 0, len(uuids))
	for _, res := range found {
		if res != nil {
			resources = append(resources, *res)
		}
	}

	logging.Debug("ResourceStore", "Fetched %d of %d requested resources", len(resources), len(uuids))
	return resources, nil
}

// findFile locates the file backing a UUID.
func (s *Store) findFile(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid resource id %q", id)
	}
	for _, ext := range supportedExtensions {
		path := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, id)
}

// readResourceFile decodes a YAML or JSON resource file. A file without a
// uuid takes it from the file name; a conflicting uuid is an error.
func readResourceFile(path string) (Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Resource{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Resource{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var res Resource
	if err := yaml.Unmarshal(data, &res); err != nil {
		return Resource{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	id, _ := UUIDFromPath(path)
	switch {
	case res.UUID == "":
		res.UUID = id
	case res.UUID != id:
		return Resource{}, fmt.Errorf("file %s declares uuid %s", path, res.UUID)
	}
	return res, nil
}

// UUIDFromPath extracts the resource UUID from a resource file path.
// It returns false for files the store does not manage.
func UUIDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	for _, supported := range supportedExtensions {
		if ext == supported {
			id := strings.TrimSuffix(base, ext)
			if id == "" || strings.HasPrefix(id, ".") {
				return "", false
			}
			return id, true
		}
	}
	return "", false
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/figure-editor/backend/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown figure ids.
var ErrNotFound = errors.New("figure not found")

// Store defines the interface for figure document storage. Documents are
// opaque bytes to the store; the name is kept for listings.
type Store interface {
	// Save writes data under id. An empty id stores a new figure under a
	// fresh id.
	Save(ctx context.Context, id, name string, data []byte) (*models.FigureInfo, error)
	Load(ctx context.Context, id string) ([]byte, error)
	Get(ctx context.Context, id string) (*models.FigureInfo, error)
	// List returns at most limit figures, most recently updated first.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*models.FigureInfo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendLocal  = "local"
	BackendDuckDB = "duckdb"
	BackendSQLite = "sqlite"
)

// Open creates the store for backend inside dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalStore(filepath.Join(dir, "figures"))
	case BackendDuckDB:
		return NewDuckStore(filepath.Join(dir, "figures.duckdb"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "figures.db"))
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

// LocalStore implements Store using one JSON file per figure.
type LocalStore struct {
	mu      sync.RWMutex
	dir     string
	figures map[string]*models.FigureInfo
}

// NewLocalStore creates a LocalStore and indexes the figures already in dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating figure directory: %w", err)
	}

	s := &LocalStore{
		dir:     dir,
		figures: make(map[string]*models.FigureInfo),
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

// index rebuilds the in-memory listing from the files on disk.
func (s *LocalStore) index() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading figure directory: %w", err)
	}
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var head struct {
			FigureName string `json:"figureName"`
		}
		_ = json.Unmarshal(data, &head)

		s.figures[id] = &models.FigureInfo{
			ID:        id,
			Name:      head.FigureName,
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
			UpdatedAt: fi.ModTime(),
		}
	}
	return nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes a figure file.
func (s *LocalStore) Save(_ context.Context, id, name string, data []byte) (*models.FigureInfo, error) {
	if id == "" {
		id = uuid.New().String()
	} else if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("writing figure: %w", err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("replacing figure: %w", err)
	}

	now := time.Now()
	info, ok := s.figures[id]
	if !ok {
		info = &models.FigureInfo{ID: id, CreatedAt: now}
		s.figures[id] = info
	}
	info.Name = name
	info.Size = int64(len(data))
	info.UpdatedAt = now

	cp := *info
	return &cp, nil
}

// Load reads a figure file.
func (s *LocalStore) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.figures[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("reading figure: %w", err)
	}
	return data, nil
}

// Get retrieves figure metadata by ID.
func (s *LocalStore) Get(_ context.Context, id string) (*models.FigureInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.figures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *info
	return &cp, nil
}

// List returns the most recently updated figures.
func (s *LocalStore) List(_ context.Context, limit int) ([]*models.FigureInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FigureInfo, 0, len(s.figures))
	for _, info := range s.figures {
		cp := *info
		list = append(list, &cp)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes a figure file.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.figures[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting figure: %w", err)
	}
	delete(s.figures, id)
	return nil
}

// Close is a no-op for the filesystem store.
func (s *LocalStore) Close() error { return nil }

// checkID rejects ids that would escape the store directory.
func checkID(id string) error {
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid figure id %q", id)
	}
	return nil
}

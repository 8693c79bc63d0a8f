package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// DefaultDir is where checkpoints go when no directory is configured.
var DefaultDir = filepath.Join(".stepwise", "sessions")

// Store implements ports.StateStore with one JSON file per session.
type Store struct {
	BasePath string
}

var _ ports.StateStore = (*Store)(nil)

// New creates a Store rooted at basePath (DefaultDir when empty).
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid sessionID %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+".json"), nil
}

// Save checkpoints the state atomically.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	return writeJSON(p, state)
}

// Load reads a checkpoint.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error) {
	p, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrSessionNotFound
	}
	return Import(p)
}

// Delete removes a checkpoint. Missing files are ignored.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the session IDs found in the directory, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(sessions)
	return sessions, nil
}

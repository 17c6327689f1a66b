package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Store implements ports.CheckpointStore using the local filesystem.
// It stores one JSON file per resume token, so a token printed by one process
// can be resumed by another.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".jarvis/checkpoints".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".jarvis", "checkpoints")
	}
	return &Store{BasePath: basePath}
}

// Save persists the checkpoint to a JSON file atomically.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if err := validName("token", cp.Token); err != nil {
		return err
	}
	return writeJSON(s.BasePath, cp.Token, cp)
}

// Consume claims the checkpoint file by renaming it to a private name before reading it.
// Rename is atomic, so concurrent consumers of the same token cannot both succeed.
func (s *Store) Consume(ctx context.Context, token string) (*domain.Checkpoint, error) {
	if validName("token", token) != nil {
		return nil, domain.ErrCheckpointNotFound
	}

	src := s.path(token)
	claimed := filepath.Join(s.BasePath, "claim-"+token+"-"+strconv.FormatInt(time.Now().UnixNano(), 36))
	if err := os.Rename(src, claimed); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to claim checkpoint: %w", err)
	}
	defer func() { _ = os.Remove(claimed) }()

	var cp domain.Checkpoint
	if err := readJSON(claimed, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Load retrieves the checkpoint without consuming it.
func (s *Store) Load(ctx context.Context, token string) (*domain.Checkpoint, error) {
	if validName("token", token) != nil {
		return nil, domain.ErrCheckpointNotFound
	}

	var cp domain.Checkpoint
	if err := readJSON(s.path(token), &cp); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint file.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := validName("token", token); err != nil {
		return err
	}
	if err := os.Remove(s.path(token)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns all pending tokens.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return listNames(s.BasePath)
}

func (s *Store) path(token string) string {
	return filepath.Join(s.BasePath, token+ext)
}

package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/osuapi/auth"
)

// FileStore keeps one credential per key as <dir>/<key>.json.
type FileStore struct {
	dir    string
	key    string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a FileStore for key inside dir. The directory is
// created on first save.
func NewFileStore(dir, key string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("token store directory is required")
	}
	if err := validKey(key); err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}
	return &FileStore{
		dir:    dir,
		key:    key,
		logger: logger.With().Str("component", "tokenstore").Str("key", key).Logger(),
	}, nil
}

// Path returns the file the credential is stored in
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.key+".json")
}

func (s *FileStore) Load(context.Context) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred auth.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse credential file %s: %w", s.Path(), err)
	}
	return &cred, nil
}

// Save writes the credential to a temporary file in the same directory and
// renames it over the previous one.
func (s *FileStore) Save(_ context.Context, cred auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token store directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}

	s.logger.Debug().Str("path", s.Path()).Msg("Saved credential")
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

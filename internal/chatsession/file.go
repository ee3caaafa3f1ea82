// Package chatsession persists domain.ChatSession across turns: an
// in-memory file-backed store for single-node/dev deployments, and a
// Postgres-backed store for managed deployments. Both implement
// xia.SessionStore. Grounded on internal/sessions.Manager and
// internal/store/file's wrap-and-snapshot idiom, generalized from the
// teacher's generic chat session to the domain-specific ChatSession.
package chatsession

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fazal-lab/xia/internal/domain"
)

// FileStore is a JSON-file-per-session store with an in-memory cache,
// mirroring internal/sessions.Manager's load-all-on-start, atomic-save
// pattern.
type FileStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	dir      string
}

func NewFileStore(dir string) (*FileStore, error) {
	s := &FileStore{sessions: make(map[string]*domain.ChatSession), dir: dir}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chatsession: create storage dir: %w", err)
	}
	s.loadAll()
	return s, nil
}

func (s *FileStore) loadAll() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var sess domain.ChatSession
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		s.sessions[sess.ID] = &sess
	}
}

// Get returns (nil, nil) for an unknown id.
func (s *FileStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

// Save upserts the session in the cache and, if a storage dir is
// configured, persists it atomically (temp file + rename).
func (s *FileStore) Save(ctx context.Context, sess *domain.ChatSession) error {
	cp := *sess
	s.mu.Lock()
	s.sessions[sess.ID] = &cp
	s.mu.Unlock()

	if s.dir == "" {
		return nil
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	filename := sanitizeFilename(sess.ID)
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}
	path := filepath.Join(s.dir, filename+".json")

	tmp, err := os.CreateTemp(s.dir, "chatsession-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func sanitizeFilename(id string) string {
	return strings.ReplaceAll(id, ":", "_")
}

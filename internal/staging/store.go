// Package staging holds the raw CSV bytes a wizard session received from the
// browser, so resuming a draft can re-sniff and re-extract without a second
// upload. Objects are keyed by dataset id and file name.
package staging

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is the upload staging backend.
type Store interface {
	Put(ctx context.Context, datasetID, fileName string, content []byte) error
	Get(ctx context.Context, datasetID, fileName string) ([]byte, error)
	Remove(ctx context.Context, datasetID string) error
}

// MemoryStore keeps staged uploads in process memory. It is the fallback
// when no object store is configured; staged files then do not survive a
// gateway restart.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, datasetID, fileName string, content []byte) error {
	key, err := objectKey(datasetID, fileName)
	if err != nil {
		return err
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	s.mu.Lock()
	s.objects[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, datasetID, fileName string) ([]byte, error) {
	key, err := objectKey(datasetID, fileName)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("staging: %s not found", key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Remove(_ context.Context, datasetID string) error {
	prefix := strings.TrimSpace(datasetID)
	if prefix == "" {
		return fmt.Errorf("staging: dataset id is required")
	}
	s.mu.Lock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix+"/") {
			delete(s.objects, key)
		}
	}
	s.mu.Unlock()
	return nil
}

func objectKey(datasetID, fileName string) (string, error) {
	datasetID = strings.TrimSpace(datasetID)
	fileName = strings.TrimSpace(fileName)
	if datasetID == "" {
		return "", fmt.Errorf("staging: dataset id is required")
	}
	if fileName == "" {
		return "", fmt.Errorf("staging: file name is required")
	}
	return datasetID + "/" + strings.ReplaceAll(fileName, "/", "_"), nil
}

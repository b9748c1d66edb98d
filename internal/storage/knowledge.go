package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// KnowledgeFile holds the last read contents of the knowledge document.
type KnowledgeFile struct {
	path string

	mu      sync.RWMutex
	content string
	loaded  bool
}

// NewKnowledgeFile creates a KnowledgeFile for path. Nothing is read until
// Refresh is called.
func NewKnowledgeFile(path string) *KnowledgeFile {
	return &KnowledgeFile{path: path}
}

// Path returns the knowledge document location.
func (k *KnowledgeFile) Path() string {
	return k.path
}

// Refresh re-reads the file and reports whether its content changed since the
// previous read. A missing file reads as an empty document.
func (k *KnowledgeFile) Refresh() (string, bool, error) {
	data, err := os.ReadFile(k.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return k.Current(), false, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	content := string(data)

	k.mu.Lock()
	defer k.mu.Unlock()

	changed := !k.loaded || content != k.content
	k.content = content
	k.loaded = true

	return content, changed, nil
}

// Current returns the contents from the last successful Refresh.
func (k *KnowledgeFile) Current() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.content
}

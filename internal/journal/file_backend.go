package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend appends entries as JSON lines to a single file.
type FileBackend struct {
	path string
	mu   sync.Mutex
	file *os.File
}

func NewFileBackend(path string) (*FileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrInvalidInput
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileBackend{path: path, file: file}, nil
}

func (b *FileBackend) Append(entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err = b.file.Write(append(payload, '\n'))
	return err
}

func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

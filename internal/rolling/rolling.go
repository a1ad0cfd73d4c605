// Package rolling provides the numbered-segment log sink. Segment 0 is the
// active stream; higher numbers are older. Rotation happens once, before the
// active segment is opened, never mid-run.
package rolling

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const segmentPrefix = "log"

// Sink is an append-only write stream over the active segment.
type Sink struct {
	path string
	file *os.File
}

// Open rotates oversized segments and opens segment 0 for appending. If the
// active segment exists with size >= maxBytes, every segment shifts up one
// slot (renames run from maxSegments-1 down to 0, skipping absent sources)
// and the slot past maxSegments is removed.
func Open(dir string, maxBytes int64, maxSegments int) (*Sink, error) {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	if maxSegments < 1 {
		maxSegments = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	active := SegmentPath(dir, 0)
	if info, err := os.Stat(active); err == nil && info.Size() >= maxBytes {
		if err := rotate(dir, maxSegments); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(active, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open active segment: %w", err)
	}
	return &Sink{path: active, file: file}, nil
}

func rotate(dir string, maxSegments int) error {
	for n := maxSegments - 1; n >= 0; n-- {
		src := SegmentPath(dir, n)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, SegmentPath(dir, n+1)); err != nil {
			return fmt.Errorf("rotate segment %d: %w", n, err)
		}
	}
	overflow := SegmentPath(dir, maxSegments)
	if _, err := os.Stat(overflow); err == nil {
		if err := os.Remove(overflow); err != nil {
			return fmt.Errorf("remove overflow segment: %w", err)
		}
	}
	return nil
}

// SegmentPath returns the path of segment n under dir.
func SegmentPath(dir string, n int) string {
	return filepath.Join(dir, segmentPrefix+strconv.Itoa(n))
}

// Path returns the active segment's path.
func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *Sink) Close() error {
	return s.file.Close()
}

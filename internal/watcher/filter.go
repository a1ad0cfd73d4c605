package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	normalizedMarker = ".normalized."
	tempExtension    = ".tmp"
)

// supportedExtensions lists the input images the watcher reacts to.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// Filter decides whether a path deserves processing at all. It rejects the
// normalizer's own artifacts by name, unsupported extensions, and paths
// processed too recently. Accepting a path arms its suppression entry as a
// side effect, so the filter is a gate, not a pure predicate.
type Filter struct {
	window      time.Duration
	watchWrites bool

	mu     sync.Mutex
	recent map[string]*time.Timer
}

func NewFilter(window time.Duration, watchWrites bool) *Filter {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &Filter{
		window:      window,
		watchWrites: watchWrites,
		recent:      map[string]*time.Timer{},
	}
}

// RelevantOp reports whether an event kind should be considered at all.
// Create covers both new files and renames into the watched directory;
// Write counts only when enabled. The Rename op marks the vacated old name
// and is dropped along with Remove and Chmod.
func (f *Filter) RelevantOp(op fsnotify.Op) bool {
	if op.Has(fsnotify.Create) {
		return true
	}
	if f.watchWrites && op.Has(fsnotify.Write) {
		return true
	}
	return false
}

// ShouldIgnore reports whether path must be skipped. Returning false has a
// side effect: the path enters the recently-processed set and its removal
// is scheduled after the suppression window.
func (f *Filter) ShouldIgnore(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, normalizedMarker) || strings.HasSuffix(base, tempExtension) {
		return true
	}
	if _, ok := supportedExtensions[filepath.Ext(base)]; !ok {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recent[path]; ok {
		return true
	}
	f.rememberLocked(path)
	return false
}

// Remember re-arms the suppression entry for a just-processed path so the
// notifications caused by publishing the output land inside a fresh window.
// Called for every completed processing, success or failure.
func (f *Filter) Remember(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rememberLocked(path)
}

func (f *Filter) rememberLocked(path string) {
	if existing, ok := f.recent[path]; ok {
		existing.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(f.window, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		// A re-armed entry owns a newer timer; a stale fire must not
		// remove it early.
		if f.recent[path] == timer {
			delete(f.recent, path)
		}
	})
	f.recent[path] = timer
}

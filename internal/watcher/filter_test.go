package watcher

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFilterIgnoresOwnArtifacts(t *testing.T) {
	filter := NewFilter(time.Second, false)
	cases := []struct {
		path   string
		ignore bool
	}{
		{"/watch/photo.normalized.jpg", true},
		{"/watch/photo.normalized.png", true},
		{"/watch/PHOTO.NORMALIZED.JPG", true},
		{"/watch/upload.tmp", true},
		{"/watch/upload.TMP", true},
		{"/watch/renormalized.jpg", false},
	}
	for _, tc := range cases {
		if got := filter.ShouldIgnore(tc.path); got != tc.ignore {
			t.Fatalf("ShouldIgnore(%q) = %v, want %v", tc.path, got, tc.ignore)
		}
	}
}

func TestFilterRejectsUnsupportedExtensions(t *testing.T) {
	filter := NewFilter(time.Second, false)
	for _, path := range []string{
		"/watch/readme.txt",
		"/watch/archive.zip",
		"/watch/noextension",
		"/watch/photo.jpg.partial",
	} {
		if !filter.ShouldIgnore(path) {
			t.Fatalf("expected %q to be ignored", path)
		}
	}
	for _, path := range []string{
		"/watch/a.jpg",
		"/watch/b.JPEG",
		"/watch/c.png",
		"/watch/d.gif",
		"/watch/e.bmp",
		"/watch/f.tif",
		"/watch/g.tiff",
		"/watch/h.webp",
	} {
		if filter.ShouldIgnore(path) {
			t.Fatalf("expected %q to be accepted", path)
		}
	}
}

func TestFilterMembershipIsTransient(t *testing.T) {
	filter := NewFilter(40*time.Millisecond, false)
	path := "/watch/burst.png"

	if filter.ShouldIgnore(path) {
		t.Fatalf("expected first check to accept the path")
	}
	if !filter.ShouldIgnore(path) {
		t.Fatalf("expected repeat check inside the window to be ignored")
	}
	time.Sleep(90 * time.Millisecond)
	if filter.ShouldIgnore(path) {
		t.Fatalf("expected the path to be accepted again after expiry")
	}
}

func TestFilterRememberExtendsSuppression(t *testing.T) {
	filter := NewFilter(60*time.Millisecond, false)
	path := "/watch/extend.png"

	if filter.ShouldIgnore(path) {
		t.Fatalf("expected first check to accept the path")
	}
	time.Sleep(30 * time.Millisecond)
	filter.Remember(path)

	// The original entry would have expired by now; the re-armed one
	// must still be live.
	time.Sleep(40 * time.Millisecond)
	if !filter.ShouldIgnore(path) {
		t.Fatalf("expected re-armed suppression to still be active")
	}
	time.Sleep(80 * time.Millisecond)
	if filter.ShouldIgnore(path) {
		t.Fatalf("expected suppression to lapse after the re-armed window")
	}
}

func TestFilterRelevantOps(t *testing.T) {
	plain := NewFilter(time.Second, false)
	withWrites := NewFilter(time.Second, true)
	cases := []struct {
		op          fsnotify.Op
		plain       bool
		withWrites  bool
		description string
	}{
		{fsnotify.Create, true, true, "create"},
		{fsnotify.Write, false, true, "write"},
		{fsnotify.Remove, false, false, "remove"},
		{fsnotify.Rename, false, false, "rename of the vacated name"},
		{fsnotify.Chmod, false, false, "chmod"},
	}
	for _, tc := range cases {
		if got := plain.RelevantOp(tc.op); got != tc.plain {
			t.Fatalf("RelevantOp(%s) = %v, want %v", tc.description, got, tc.plain)
		}
		if got := withWrites.RelevantOp(tc.op); got != tc.withWrites {
			t.Fatalf("RelevantOp(%s) with writes = %v, want %v", tc.description, got, tc.withWrites)
		}
	}
}

package normalize

import (
	"errors"
	"testing"
)

func TestParseFormatSpellings(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{"jpeg", JPEG},
		{"JPG", JPEG},
		{" png ", PNG},
		{"GIF", GIF},
		{"bmp", BMP},
		{"tif", TIFF},
		{"TIFF", TIFF},
		{"WebP", WebP},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatUnknown(t *testing.T) {
	if _, err := ParseFormat("heic"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ParseFormat(""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for empty name, got %v", err)
	}
}

func TestFormatExt(t *testing.T) {
	if got := JPEG.Ext(); got != "jpg" {
		t.Fatalf("expected jpeg extension jpg, got %q", got)
	}
	if got := TIFF.Ext(); got != "tiff" {
		t.Fatalf("expected tiff extension tiff, got %q", got)
	}
	if got := WebP.Ext(); got != "webp" {
		t.Fatalf("expected webp extension webp, got %q", got)
	}
}

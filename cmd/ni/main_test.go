package main

import (
	"reflect"
	"testing"
)

func TestCollectInputsMergesAndDeduplicates(t *testing.T) {
	files, err := collectInputs([]string{"a.png", "b.jpg"}, []string{"b.jpg", " c.gif ", ""})
	if err != nil {
		t.Fatalf("collect inputs failed: %v", err)
	}
	if want := []string{"a.png", "b.jpg", "c.gif"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
}

func TestCollectInputsRequiresFiles(t *testing.T) {
	if _, err := collectInputs(nil, []string{"  ", ""}); err == nil {
		t.Fatalf("expected an error for no usable inputs")
	}
}

func TestStringListRejectsBlankValues(t *testing.T) {
	var list stringList
	if err := list.Set("photo.png"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := list.Set("   "); err == nil {
		t.Fatalf("expected blank value to be rejected")
	}
	if got := list.String(); got != "photo.png" {
		t.Fatalf("expected single entry, got %q", got)
	}
}

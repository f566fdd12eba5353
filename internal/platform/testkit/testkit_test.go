package testkit

import (
	"path/filepath"
	"testing"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()

	MustPanic(t, func() {
		panic("boom")
	})
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()

	MustNotPanic(t, func() {
		// no panic
	})
}

func TestMustContain(t *testing.T) {
	t.Parallel()

	haystack := "alpha beta gamma"
	MustContain(t, haystack, "beta")
}

func TestWriteFileAndReadLines(t *testing.T) {
	t.Parallel()

	p := WriteFile(t, "in.jsonl", "{\"id\":1}\n{\"id\":2}\n")
	if filepath.Base(p) != "in.jsonl" {
		t.Fatalf("unexpected fixture path %s", p)
	}
	lines := ReadLines(t, p)
	if len(lines) != 2 || lines[0] != `{"id":1}` || lines[1] != `{"id":2}` {
		t.Fatalf("ReadLines = %#v", lines)
	}
}

func TestReadLines_NoTrailingNewline(t *testing.T) {
	t.Parallel()

	lines := ReadLines(t, WriteFile(t, "x.txt", "a\nb"))
	if len(lines) != 2 || lines[1] != "b" {
		t.Fatalf("ReadLines = %#v", lines)
	}
}

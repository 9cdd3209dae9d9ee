package testfixtures

import "testing"

func TestIDGeneratorSequences(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("task")

	if first, second := gen.Next(), gen.Next(); first != "task-1" || second != "task-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	t.Parallel()

	if next := NewIDGenerator("").Next(); next != "id-1" {
		t.Fatalf("expected id-1 for the empty prefix, got %q", next)
	}
}

func TestIDGeneratorRewind(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("event")
	_ = gen.Next()
	gen.SetCounter(0)
	gen.SetPrefix("ev")

	if next := gen.Next(); next != "ev-1" {
		t.Fatalf("expected ev-1 after rewind, got %q", next)
	}
}

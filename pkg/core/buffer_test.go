package core

import (
	"fmt"
	"testing"
)

func line(s string) LogLine {
	return LogLine{Line: s}
}

func TestBufferBounded(t *testing.T) {
	b := NewBuffer(500)
	for i := 0; i < 1200; i++ {
		b.Append(line(fmt.Sprintf("line %d", i)))
		if b.Len() > 500 {
			t.Fatalf("buffer exceeded capacity after %d appends: %d", i+1, b.Len())
		}
	}
	if b.Len() != 500 {
		t.Errorf("expected 500 lines, got %d", b.Len())
	}
}

func TestBufferEvictsOldestFirst(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Append(line(fmt.Sprintf("line %d", i)))
	}

	snap := b.Snapshot()
	want := []string{"line 2", "line 3", "line 4"}
	if len(snap) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(snap))
	}
	for i, w := range want {
		if snap[i].Line != w {
			t.Errorf("snap[%d] = %q, want %q", i, snap[i].Line, w)
		}
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer(10)
	b.Append(line("a"))
	b.Append(line("b"))
	b.Reset()
	if got := b.Snapshot(); len(got) != 0 {
		t.Errorf("expected empty snapshot after reset, got %d lines", len(got))
	}
	// Still usable after reset.
	b.Append(line("c"))
	if b.Len() != 1 {
		t.Errorf("expected 1 line after post-reset append, got %d", b.Len())
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(10)
	b.Append(line("a"))
	snap := b.Snapshot()
	b.Append(line("b"))
	if len(snap) != 1 {
		t.Errorf("snapshot mutated by later append: %d lines", len(snap))
	}
	snap[0].Line = "changed"
	if b.Snapshot()[0].Line != "a" {
		t.Error("writing to a snapshot leaked into the buffer")
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	if b.Cap() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, b.Cap())
	}
}

func TestBufferDuplicatesKept(t *testing.T) {
	b := NewBuffer(10)
	b.Append(line("same"))
	b.Append(line("same"))
	if b.Len() != 2 {
		t.Errorf("duplicates must not be deduplicated: got %d", b.Len())
	}
}

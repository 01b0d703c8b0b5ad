package repl

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := NewHistory("", 3)
	h.Add("a")
	h.Add("b")
	h.Add("b")
	h.Add("c")
	h.Add("d")

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if h.Get(0) != "d" || h.Get(2) != "b" {
		t.Errorf("Get() = %q, %q", h.Get(0), h.Get(2))
	}
	if h.Get(3) != "" || h.Get(-1) != "" {
		t.Error("Get() out of range should be empty")
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(path, 10)
	h.Add("apps list")
	h.Add("status")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("history mode = %o, want 600", perm)
	}

	loaded := NewHistory(path, 10)
	loaded.Add("current")
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entries := loaded.Entries()
	if len(entries) != 3 || entries[0] != "apps list" || entries[2] != "current" {
		t.Errorf("Entries() = %v", entries)
	}
}

func TestHistory_LoadTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	var data []byte
	for i := 0; i < 20; i++ {
		data = append(data, []byte("cmd"+strconv.Itoa(i)+"\n")...)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path, 5)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Len() != 5 || h.Get(0) != "cmd19" {
		t.Errorf("Len() = %d, Get(0) = %q", h.Len(), h.Get(0))
	}
}

func TestHistory_MissingFileAndMemoryOnly(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none"), 0)
	if err := h.Load(); err != nil {
		t.Errorf("Load() missing file error = %v", err)
	}

	mem := NewHistory("", 0)
	mem.Add("x")
	if err := mem.Save(); err != nil {
		t.Errorf("Save() memory-only error = %v", err)
	}
	if err := mem.Load(); err != nil {
		t.Errorf("Load() memory-only error = %v", err)
	}
}

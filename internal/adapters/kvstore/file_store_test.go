package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, err := store.Get("token"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set("token", []byte("abc.def.ghi")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := store.Get("token")
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
	if string(v) != "abc.def.ghi" {
		t.Errorf("expected round-tripped value, got %q", v)
	}

	if err := store.Set("token", []byte("rotated")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	v, _, _ = store.Get("token")
	if string(v) != "rotated" {
		t.Errorf("expected overwritten value, got %q", v)
	}

	if err := store.Delete("token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get("token"); ok {
		t.Error("expected key gone after delete")
	}
	if err := store.Delete("token"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := store.Set("selectedParkIds", []byte("NP1,NP2")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "selectedParkIds.cbor" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected a single slot file, got %v", names)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		if err := store.Set(key, []byte("x")); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token.cbor"), []byte{0xff, 0x00}, 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, _, err := store.Get("token"); err == nil {
		t.Error("expected decode error")
	}
}

func TestFileStore_WatchSeesOtherWriters(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("token", []byte("t1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := store.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := other.Delete("token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Key == "token" && c.Deleted {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for delete event")
		}
	}
}

func TestKeyFromPath(t *testing.T) {
	tests := []struct {
		path string
		key  string
		ok   bool
	}{
		{"/s/token.cbor", "token", true},
		{"/s/.token-12345", "", false},
		{"/s/readme.txt", "", false},
	}
	for _, tt := range tests {
		key, ok := keyFromPath(tt.path)
		if key != tt.key || ok != tt.ok {
			t.Errorf("keyFromPath(%q) = %q, %v; want %q, %v", tt.path, key, ok, tt.key, tt.ok)
		}
	}
}

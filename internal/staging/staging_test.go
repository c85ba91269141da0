package staging

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStaged(t *testing.T, tree *Tree, month, name string, content []byte) string {
	t.Helper()
	dir := tree.MonthDir(month)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestExists(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}

	if tree.Exists("2024-03") {
		t.Error("month should not exist yet")
	}
	writeStaged(t, tree, "2024-03", "a.jpg", []byte("x"))
	if !tree.Exists("2024-03") {
		t.Error("month should exist")
	}
}

func TestMonthSize(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}
	writeStaged(t, tree, "2024-03", "a.jpg", make([]byte, 100))
	writeStaged(t, tree, "2024-03", "b.mov", make([]byte, 250))
	// Non-media files are ignored.
	writeStaged(t, tree, "2024-03", "notes.txt", make([]byte, 9999))

	size, err := tree.MonthSize("2024-03")
	if err != nil {
		t.Fatalf("month size: %v", err)
	}
	if size != 350 {
		t.Errorf("size = %d, want 350", size)
	}
}

func TestMediaFiles(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}
	writeStaged(t, tree, "2024-03", "b.jpg", []byte("b"))
	writeStaged(t, tree, "2024-03", "a.heic", []byte("a"))
	writeStaged(t, tree, "2024-03", "skip.txt", []byte("s"))

	files, err := tree.MediaFiles("2024-03")
	if err != nil {
		t.Fatalf("media files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.heic" || filepath.Base(files[1]) != "b.jpg" {
		t.Errorf("files = %v, want lexical order a.heic, b.jpg", files)
	}
}

func TestHashFile(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}
	path := writeStaged(t, tree, "2024-03", "a.jpg", []byte("hello"))

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("hash = %s, want %s", got, want)
	}
}

func TestDedup(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}
	dup := []byte("same content")
	writeStaged(t, tree, "2024-03", "IMG_001.jpg", dup)
	writeStaged(t, tree, "2024-03", "IMG_001_copy.jpg", dup)
	writeStaged(t, tree, "2024-03", "IMG_002.jpg", []byte("different"))
	// Same size, different content: not a duplicate.
	writeStaged(t, tree, "2024-03", "IMG_003.jpg", []byte("same content!"))
	writeStaged(t, tree, "2024-03", "IMG_004.jpg", []byte("other stuff!!"))

	res, err := tree.Dedup("2024-03", false)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if res.Examined != 5 {
		t.Errorf("examined = %d, want 5", res.Examined)
	}
	if len(res.Removed) != 1 || filepath.Base(res.Removed[0]) != "IMG_001_copy.jpg" {
		t.Fatalf("removed = %v, want only IMG_001_copy.jpg", res.Removed)
	}

	// The keeper survives, the copy is gone.
	if _, err := os.Stat(filepath.Join(tree.MonthDir("2024-03"), "IMG_001.jpg")); err != nil {
		t.Error("keeper should survive")
	}
	if _, err := os.Stat(res.Removed[0]); !os.IsNotExist(err) {
		t.Error("duplicate should be deleted")
	}
}

func TestDedupDryRun(t *testing.T) {
	tree := &Tree{Root: t.TempDir()}
	dup := []byte("same content")
	writeStaged(t, tree, "2024-03", "IMG_001.jpg", dup)
	writeStaged(t, tree, "2024-03", "IMG_001_copy.jpg", dup)

	res, err := tree.Dedup("2024-03", true)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if len(res.Removed) != 1 {
		t.Fatalf("removed = %v, want 1 entry", res.Removed)
	}
	if _, err := os.Stat(res.Removed[0]); err != nil {
		t.Error("dry-run must not delete anything")
	}
}

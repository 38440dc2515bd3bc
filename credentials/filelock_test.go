package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	lock, err := acquireFileLock(path)
	if err != nil {
		t.Fatalf("acquireFileLock failed: %v", err)
	}
	if !FileExists(path + ".lock") {
		t.Fatal("Expected lock file to exist while held")
	}
	if err := lock.release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if FileExists(path + ".lock") {
		t.Error("Expected lock file to be removed on release")
	}
}

func TestFSStoreReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	lockPath := path + ".lock"
	if err := os.WriteFile(lockPath, []byte("12345"), 0o600); err != nil {
		t.Fatalf("Failed to write lock file: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("Failed to age lock file: %v", err)
	}

	if err := NewFSStore(path).Set(KeyUserID, "u"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if FileExists(lockPath) {
		t.Error("Expected lock file to be released after Set")
	}
}

package localstate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDir_Override(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "nested")
	t.Setenv(envHome, tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir error: %v", err)
	}
	if dir != tmp {
		t.Fatalf("expected dir %s, got %s", tmp, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("dir not created: %v", err)
	}
}

func TestDBPath(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(envHome, tmp)

	p, err := DBPath()
	if err != nil {
		t.Fatalf("DBPath error: %v", err)
	}
	if want := filepath.Join(tmp, dbFilename); p != want {
		t.Fatalf("expected path %s, got %s", want, p)
	}
}

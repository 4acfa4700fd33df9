package runtimeEnv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingFileRotatesPastMaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	r, err := NewRotatingFile(path, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	line := strings.Repeat("x", 10) + "\n"
	for i := 0; i < 5; i++ {
		if _, err := r.Write([]byte(line)); err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected active log file to exist: %v", err)
	}
	if _, err := os.Stat(path + ".1.gz"); err != nil {
		t.Fatalf("expected a rotated, gzipped generation: %v", err)
	}
}

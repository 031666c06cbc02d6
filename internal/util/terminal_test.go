package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTerminalWidthFallback(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if IsTerminal(f.Fd()) {
		t.Fatal("regular file reported as a terminal")
	}
	if got := TerminalWidth(f.Fd(), 80); got != 80 {
		t.Errorf("TerminalWidth = %d, expected the 80 fallback", got)
	}
}

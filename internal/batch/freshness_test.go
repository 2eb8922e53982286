package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func freshnessItem(t *testing.T) (Item, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "song_p.psarc")
	if err := os.WriteFile(input, []byte("PSAR"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	output := filepath.Join(dir, "out", "song_p.psarc")
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return Item{Path: input, OutputPath: output}, output
}

func TestUpToDateMissingOutput(t *testing.T) {
	item, _ := freshnessItem(t)
	if UpToDate(item) {
		t.Fatal("expected missing output to be stale")
	}
}

func TestUpToDateEmptyOutput(t *testing.T) {
	item, output := freshnessItem(t)
	if err := os.WriteFile(output, nil, 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	if UpToDate(item) {
		t.Fatal("expected empty output to be stale")
	}
}

func TestUpToDateOlderOutput(t *testing.T) {
	item, output := freshnessItem(t)
	if err := os.WriteFile(output, []byte("PSAR"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	stale := time.Now().Add(-time.Hour)
	if err := os.Chtimes(output, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if UpToDate(item) {
		t.Fatal("expected output older than input to be stale")
	}
}

func TestUpToDateFreshOutput(t *testing.T) {
	item, output := freshnessItem(t)
	if err := os.WriteFile(output, []byte("PSAR"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	fresh := time.Now().Add(time.Hour)
	if err := os.Chtimes(output, fresh, fresh); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if !UpToDate(item) {
		t.Fatal("expected newer non-empty output to be fresh")
	}
}

func TestUpToDateMissingInputIsStale(t *testing.T) {
	item, output := freshnessItem(t)
	if err := os.WriteFile(output, []byte("PSAR"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	if err := os.Remove(item.Path); err != nil {
		t.Fatalf("remove input: %v", err)
	}
	if UpToDate(item) {
		t.Fatal("expected unprobeable input to count as stale")
	}
}

package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"stemstrip/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	result := CheckDiskSpace("space", dir, 1)
	if !result.Passed {
		t.Fatalf("expected pass for 1-byte minimum, got: %s", result.Detail)
	}

	// No filesystem has this much room.
	result = CheckDiskSpace("space", dir, 1<<62)
	if result.Passed {
		t.Fatal("expected failure for absurd minimum")
	}
}

func TestRunAllReportsMissingBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Tools.PsarcBin = "definitely-not-a-real-psarc-binary"

	results := RunAll(&cfg, t.TempDir())
	failed := Failed(results)
	if len(failed) == 0 {
		t.Fatal("expected at least one failed check")
	}
	found := false
	for _, result := range failed {
		if result.Name == "psarc" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected psarc failure in %v", failed)
	}
}

func TestRunAllOptionalBinaryDoesNotFail(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Tools.RevorbBin = "definitely-not-a-real-revorb-binary"

	for _, result := range Failed(RunAll(&cfg, t.TempDir())) {
		if result.Name == "revorb" {
			t.Fatalf("optional revorb should not fail preflight: %v", result)
		}
	}
}

func TestRunAllChecksCodebooksFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Tools.CodebooksPath = filepath.Join(t.TempDir(), "missing.bin")

	failed := Failed(RunAll(&cfg, t.TempDir()))
	found := false
	for _, result := range failed {
		if result.Name == "ww2ogg codebooks" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected codebooks failure in %v", failed)
	}
}

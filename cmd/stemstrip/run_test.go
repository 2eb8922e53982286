package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stemstrip/internal/testsupport"
)

func TestRunDryRunListsArchives(t *testing.T) {
	env := setupCLITestEnv(t)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteArchive(t, inputDir, "alpha_p.psarc")
	testsupport.WriteArchive(t, inputDir, "beta_p.psarc")

	// beta already has a fresh output, so the dry run should plan a skip.
	testsupport.WriteFile(t, filepath.Join(outputDir, "beta_p.psarc"), 32)

	out, _, err := runCLI(t, []string{inputDir, outputDir, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "Alpha")
	requireContains(t, out, "process")
	requireContains(t, out, "Beta")
	requireContains(t, out, "skip (up to date)")
}

func TestRunDryRunForceIgnoresFreshOutputs(t *testing.T) {
	env := setupCLITestEnv(t)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteArchive(t, inputDir, "alpha_p.psarc")
	testsupport.WriteFile(t, filepath.Join(outputDir, "alpha_p.psarc"), 32)

	out, _, err := runCLI(t, []string{inputDir, outputDir, "--dry-run", "--force"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "process")
	if strings.Contains(out, "skip (up to date)") {
		t.Fatalf("force dry run should not plan skips, got:\n%s", out)
	}
}

func TestRunReportsEmptyDiscovery(t *testing.T) {
	env := setupCLITestEnv(t)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteFile(t, filepath.Join(inputDir, "notes.txt"), 8)

	out, _, err := runCLI(t, []string{inputDir, outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("empty discovery should succeed: %v", err)
	}
	requireContains(t, out, "No .psarc archives found")
}

func TestRunRejectsMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(env.baseDir, "nope")
	outputDir := filepath.Join(env.baseDir, "out")

	_, _, err := runCLI(t, []string{missing, outputDir}, env.configPath)
	if err == nil {
		t.Fatal("expected discovery error for missing input")
	}
	requireContains(t, err.Error(), "input path does not exist")
}

func TestRunRejectsUnknownDevice(t *testing.T) {
	env := setupCLITestEnv(t)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteArchive(t, inputDir, "alpha_p.psarc")

	_, _, err := runCLI(t, []string{inputDir, outputDir, "--device", "gpu"}, env.configPath)
	if err == nil {
		t.Fatal("expected device validation error")
	}
	requireContains(t, err.Error(), "--device must be one of")
}

func TestRunAbortsWhenRequiredToolMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.PsarcBin = "stemstrip-test-no-such-tool"
	writeTestConfig(t, env.configPath, env.cfg)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteArchive(t, inputDir, "alpha_p.psarc")

	out, _, err := runCLI(t, []string{inputDir, outputDir}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "preflight check(s) failed")
	requireContains(t, out, "psarc")
}

func TestRunProcessesArchiveEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	binDir := filepath.Join(testsupport.BaseDir(env.cfg), "bin")

	// Functional stand-ins for the real tools: unpack materializes one WEM
	// payload, the converters write their destination argument, demucs lays
	// out the four-stem directory, pack produces the final archive bytes.
	writeToolStub(t, binDir, "psarc", `#!/bin/sh
mode="$1"; shift
input=""; output=""
while [ $# -gt 0 ]; do
  case "$1" in
    --input) input="$2"; shift 2 ;;
    --output) output="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ "$mode" = "unpack" ]; then
  mkdir -p "$output/audio"
  printf wem > "$output/audio/song.wem"
else
  printf packed > "$output"
fi
`)
	writeToolStub(t, binDir, "ww2ogg", `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
printf ogg > "$out"
`)
	writeToolStub(t, binDir, "ffmpeg", `#!/bin/sh
eval "out=\${$#}"
printf wav > "$out"
`)
	writeToolStub(t, binDir, "demucs", `#!/bin/sh
model=""; out=""
while [ $# -gt 1 ]; do
  case "$1" in
    --name) model="$2"; shift 2 ;;
    --out) out="$2"; shift 2 ;;
    --device) shift 2 ;;
    *) break ;;
  esac
done
track=$(basename "$1" .wav)
dir="$out/$model/$track"
mkdir -p "$dir"
for stem in drums bass other vocals; do
  printf stem > "$dir/$stem.wav"
done
`)
	writeToolStub(t, binDir, "wav2wem", `#!/bin/sh
printf encoded > "$2"
`)

	inputDir := filepath.Join(env.baseDir, "input")
	outputDir := filepath.Join(env.baseDir, "out")
	testsupport.WriteArchive(t, inputDir, "alpha_p.psarc")

	out, _, err := runCLI(t, []string{inputDir, outputDir, "--workers", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "processed=1")

	published, err := os.ReadFile(filepath.Join(outputDir, "alpha_p.psarc"))
	if err != nil {
		t.Fatalf("read published archive: %v", err)
	}
	if string(published) != "packed" {
		t.Fatalf("published archive = %q, want the packed bytes", published)
	}

	// A second run finds the output newer than the input and skips it.
	out, _, err = runCLI(t, []string{inputDir, outputDir, "--workers", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("rerun: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "skipped=1")
	requireContains(t, out, "processed=0")
}

func writeToolStub(t *testing.T, binDir, name, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func TestRootWithoutArgsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("bare invocation: %v", err)
	}
	requireContains(t, out, "INPUT_PATH OUTPUT_DIR")
}

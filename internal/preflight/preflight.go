package preflight

import (
	"stemstrip/internal/config"
	"stemstrip/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minStagingBytes is the free space floor for the staging area. Separated
// stems are uncompressed WAV and dwarf the source archives.
const minStagingBytes = 1 << 30

// RunAll executes the preflight checks for a batch run: directory access,
// free scratch space, required binaries, and the ww2ogg codebooks file when
// one is configured. outputDir is the run's output directory, already created
// by the caller.
func RunAll(cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDiskSpace("Staging free space", cfg.Paths.StagingDir, minStagingBytes))
	if outputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", outputDir))
	}

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		if !status.Available && status.Optional {
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		}
		results = append(results, result)
	}

	if cfg.Tools.CodebooksPath != "" {
		status := deps.CheckFile("ww2ogg codebooks", cfg.Tools.CodebooksPath, "packed codebooks", false)
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detailOrCommand(status)})
	}

	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

func detailOrCommand(status deps.Status) string {
	if status.Available {
		return status.Command
	}
	return status.Detail
}

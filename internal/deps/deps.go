package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"stemstrip/internal/config"
)

// Requirement defines an external dependency stemstrip relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the external tool list for the configured binaries.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return []Requirement{
		{Name: "psarc", Command: cfg.Tools.PsarcBin, Description: "Packs and unpacks PSARC archives"},
		{Name: "ffmpeg", Command: cfg.Tools.FFmpegBin, Description: "Audio conversion and stem mixing"},
		{Name: "demucs", Command: cfg.Tools.DemucsBin, Description: "Source separation"},
		{Name: "ww2ogg", Command: cfg.Tools.Ww2oggBin, Description: "Converts Wwise WEM audio to Ogg Vorbis"},
		{Name: "revorb", Command: cfg.Tools.RevorbBin, Description: "Rebuilds Ogg granule positions after ww2ogg", Optional: true},
		{Name: "wav2wem", Command: cfg.Tools.Wav2wemBin, Description: "Converts WAV backing tracks to Wwise WEM"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckFile reports whether a supporting file (such as the ww2ogg codebooks)
// exists and is a regular file. An empty path counts as available for optional
// resources since the tool then uses its built-in default.
func CheckFile(name, path, description string, optional bool) Status {
	status := Status{
		Name:        name,
		Command:     strings.TrimSpace(path),
		Description: strings.TrimSpace(description),
		Optional:    optional,
	}
	if status.Command == "" {
		status.Available = optional
		if !optional {
			status.Detail = "path not configured"
		} else {
			status.Detail = "using tool default"
		}
		return status
	}
	info, err := os.Stat(status.Command)
	if err != nil {
		status.Available = false
		status.Detail = fmt.Sprintf("file %q not found", status.Command)
		return status
	}
	if info.IsDir() {
		status.Available = false
		status.Detail = fmt.Sprintf("%q is a directory", status.Command)
		return status
	}
	status.Available = true
	return status
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

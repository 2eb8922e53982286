package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"stemstrip/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "stemstrip", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Separation.Model != "htdemucs" {
		t.Fatalf("unexpected default model: %q", cfg.Separation.Model)
	}
	if cfg.Separation.Device != "auto" {
		t.Fatalf("unexpected default device: %q", cfg.Separation.Device)
	}
	if cfg.Separation.DeviceFallback {
		t.Fatal("expected device fallback disabled by default")
	}
	if len(cfg.Separation.ExcludeStems) != 1 || cfg.Separation.ExcludeStems[0] != "other" {
		t.Fatalf("unexpected default exclude stems: %v", cfg.Separation.ExcludeStems)
	}
	if cfg.Workflow.Workers != 0 {
		t.Fatalf("expected workers 0 (CPU count) by default, got %d", cfg.Workflow.Workers)
	}
	if cfg.Workflow.Recursive {
		t.Fatal("expected recursive walk disabled by default")
	}
	if cfg.Tools.PsarcBin != "psarc" || cfg.Tools.FFmpegBin != "ffmpeg" {
		t.Fatalf("unexpected tool defaults: %q %q", cfg.Tools.PsarcBin, cfg.Tools.FFmpegBin)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected ntfy topic empty by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stemstrip.toml")

	type payload struct {
		Separation struct {
			Model        string   `toml:"model"`
			Device       string   `toml:"device"`
			ExcludeStems []string `toml:"exclude_stems"`
		} `toml:"separation"`
		Workflow struct {
			Workers int `toml:"workers"`
		} `toml:"workflow"`
		Tools struct {
			FFmpegBin string `toml:"ffmpeg_bin"`
		} `toml:"tools"`
	}
	custom := payload{}
	custom.Separation.Model = "htdemucs_ft"
	custom.Separation.Device = "CUDA"
	custom.Separation.ExcludeStems = []string{"Other", "vocals", "other"}
	custom.Workflow.Workers = 3
	custom.Tools.FFmpegBin = "/opt/ffmpeg/bin/ffmpeg"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Separation.Model != "htdemucs_ft" {
		t.Fatalf("expected model from file, got %q", cfg.Separation.Model)
	}
	if cfg.Separation.Device != "cuda" {
		t.Fatalf("expected device lowercased, got %q", cfg.Separation.Device)
	}
	want := []string{"other", "vocals"}
	if len(cfg.Separation.ExcludeStems) != len(want) {
		t.Fatalf("expected deduplicated stems %v, got %v", want, cfg.Separation.ExcludeStems)
	}
	for i, stem := range want {
		if cfg.Separation.ExcludeStems[i] != stem {
			t.Fatalf("expected stems %v, got %v", want, cfg.Separation.ExcludeStems)
		}
	}
	if cfg.Workflow.Workers != 3 {
		t.Fatalf("expected workers 3, got %d", cfg.Workflow.Workers)
	}
	if cfg.Tools.FFmpegBin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg override, got %q", cfg.Tools.FFmpegBin)
	}
}

func TestEnvVarOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stemstrip.toml")

	type payload struct {
		Logging struct {
			Level string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Logging.Level = "warn"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("STEMSTRIP_NTFY_TOPIC", "env-topic")
	t.Setenv("STEMSTRIP_LOG_LEVEL", "debug")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "htdemucs") {
		t.Fatalf("sample config missing model default: %s", contents)
	}

	// Validate it decodes
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.StagingDir, "stemstrip") {
			t.Fatalf("expected staging dir to contain stemstrip, got %q", cfg.Paths.StagingDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.UnpackTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Separation.Device = "tpu"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown device")
	}

	cfg = config.Default()
	cfg.Workflow.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative workers")
	}

	cfg = config.Default()
	cfg.Workflow.ShutdownGracePeriod = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero shutdown grace")
	}
}

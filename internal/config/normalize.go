package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSeparation()
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.OutputDir = strings.TrimSpace(c.Paths.OutputDir)
	if c.Paths.OutputDir != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSeparation() {
	c.Separation.Model = strings.TrimSpace(c.Separation.Model)
	if c.Separation.Model == "" {
		c.Separation.Model = defaultModel
	}
	c.Separation.Device = strings.ToLower(strings.TrimSpace(c.Separation.Device))
	if c.Separation.Device == "" {
		c.Separation.Device = defaultDevice
	}
	if c.Separation.SeparateTimeout <= 0 {
		c.Separation.SeparateTimeout = defaultSeparateTimeout
	}
	if len(c.Separation.ExcludeStems) == 0 {
		c.Separation.ExcludeStems = defaultExcludeStems()
		return
	}
	stems := make([]string, 0, len(c.Separation.ExcludeStems))
	seen := make(map[string]struct{}, len(c.Separation.ExcludeStems))
	for _, stem := range c.Separation.ExcludeStems {
		normalized := strings.ToLower(strings.TrimSpace(stem))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		stems = append(stems, normalized)
	}
	c.Separation.ExcludeStems = stems
}

func (c *Config) normalizeTools() error {
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Tools.PsarcBin, defaultPsarcBin)
	fill(&c.Tools.FFmpegBin, defaultFFmpegBin)
	fill(&c.Tools.Ww2oggBin, defaultWw2oggBin)
	fill(&c.Tools.RevorbBin, defaultRevorbBin)
	fill(&c.Tools.Wav2wemBin, defaultWav2wemBin)
	fill(&c.Tools.DemucsBin, defaultDemucsBin)

	c.Tools.CodebooksPath = strings.TrimSpace(c.Tools.CodebooksPath)
	if c.Tools.CodebooksPath != "" {
		expanded, err := expandPath(c.Tools.CodebooksPath)
		if err != nil {
			return fmt.Errorf("tools.codebooks_path: %w", err)
		}
		c.Tools.CodebooksPath = expanded
	}

	if c.Tools.UnpackTimeout <= 0 {
		c.Tools.UnpackTimeout = defaultUnpackTimeout
	}
	if c.Tools.ConvertTimeout <= 0 {
		c.Tools.ConvertTimeout = defaultConvertTimeout
	}
	if c.Tools.RepackTimeout <= 0 {
		c.Tools.RepackTimeout = defaultRepackTimeout
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers < 0 {
		c.Workflow.Workers = 0
	}
	if c.Workflow.ShutdownGracePeriod <= 0 {
		c.Workflow.ShutdownGracePeriod = defaultShutdownGrace
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if value, ok := os.LookupEnv("STEMSTRIP_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("STEMSTRIP_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

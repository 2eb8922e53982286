package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSeparation() error {
	switch c.Separation.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("separation.device must be one of auto, cpu, cuda (got %q)", c.Separation.Device)
	}
	if c.Separation.SeparateTimeout <= 0 {
		return errors.New("separation.separate_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateTools() error {
	return ensurePositiveMap(map[string]int{
		"tools.unpack_timeout":  c.Tools.UnpackTimeout,
		"tools.convert_timeout": c.Tools.ConvertTimeout,
		"tools.repack_timeout":  c.Tools.RepackTimeout,
	})
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 0 {
		return errors.New("workflow.workers must be >= 0 (0 uses the CPU count)")
	}
	if c.Workflow.ShutdownGracePeriod <= 0 {
		return errors.New("workflow.shutdown_grace_period must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

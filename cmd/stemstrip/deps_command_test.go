package main

import (
	"testing"
)

func TestDepsReportsStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	for _, tool := range []string{"psarc", "ffmpeg", "demucs", "ww2ogg", "revorb", "wav2wem"} {
		requireContains(t, out, tool)
	}
	requireContains(t, out, "ok")
}

func TestDepsFailsWhenRequiredToolMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.DemucsBin = "stemstrip-test-no-such-tool"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing tool error")
	}
	requireContains(t, err.Error(), "required tool missing")
	requireContains(t, out, "missing")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "No ntfy topic configured")
}

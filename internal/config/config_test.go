// SPDX-License-Identifier: MPL-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"bitsmith-cli/internal/config"
	"bitsmith-cli/internal/issue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContainerEngine != "docker" {
		t.Errorf("ContainerEngine = %q, want docker", cfg.ContainerEngine)
	}
	if cfg.Remote.Port != 22 {
		t.Errorf("Remote.Port = %d, want 22", cfg.Remote.Port)
	}
	if cfg.Remote.Dir != "bitsmith-build" {
		t.Errorf("Remote.Dir = %q, want bitsmith-build", cfg.Remote.Dir)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
toolchain: "/tools/Xilinx/Vivado/2022.1/bin/vivado"
container_engine: "podman"
remote: {
	host: "fpga-build"
	user: "ci"
	port: 2222
}
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Toolchain != "/tools/Xilinx/Vivado/2022.1/bin/vivado" {
		t.Errorf("Toolchain = %q", cfg.Toolchain)
	}
	if cfg.ContainerEngine != "podman" {
		t.Errorf("ContainerEngine = %q, want podman", cfg.ContainerEngine)
	}
	if cfg.Remote.Host != "fpga-build" || cfg.Remote.User != "ci" || cfg.Remote.Port != 2222 {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	if cfg.Remote.Dir != "bitsmith-build" {
		t.Errorf("Remote.Dir = %q, default should survive a partial config", cfg.Remote.Dir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `remote: host: "from-file"`)
	t.Setenv("BITSMITH_REMOTE_HOST", "from-env")
	t.Setenv("BITSMITH_CONTAINER_IMAGE", "xilinx/vivado:2022.1")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.Host != "from-env" {
		t.Errorf("Remote.Host = %q, environment must win over the file", cfg.Remote.Host)
	}
	if cfg.Container.Image != "xilinx/vivado:2022.1" {
		t.Errorf("Container.Image = %q", cfg.Container.Image)
	}
}

func TestLoad_InvalidSyntax(t *testing.T) {
	path := writeConfig(t, `toolchain: {{{`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid CUE")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryConfig {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryConfig)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad engine", content: `container_engine: "lxc"`},
		{name: "bad port", content: `remote: port: 70000`},
		{name: "bad type", content: `ui: verbose: "yes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("Load() expected schema error")
			}
			if got := issue.CategoryOf(err); got != issue.CategoryConfig {
				t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryConfig)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.cue"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit config file")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryConfig {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryConfig)
	}
}

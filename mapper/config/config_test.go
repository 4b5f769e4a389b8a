// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LocalRate != 2 || cfg.GlobalRate != 0.5 {
		t.Errorf("default rates: %v, %v", cfg.LocalRate, cfg.GlobalRate)
	}
	if cfg.DefaultMap != "height" {
		t.Errorf("default map: %q", cfg.DefaultMap)
	}
	if cfg.LocalRadius != 3 {
		t.Errorf("default local radius: %v", cfg.LocalRadius)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	body := `
local_rate: 4
default_map: cost
max_height: 2
resolution_index: 0
agent:
  slope: 0.4
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LocalRate != 4 {
		t.Errorf("local rate: %v", cfg.LocalRate)
	}
	if cfg.DefaultMap != "cost" {
		t.Errorf("default map: %q", cfg.DefaultMap)
	}
	if cfg.MaxHeight != 2 {
		t.Errorf("max height: %v", cfg.MaxHeight)
	}
	if cfg.ResolutionIndex != 0 {
		t.Errorf("resolution index: %d", cfg.ResolutionIndex)
	}
	if cfg.Agent.Slope != 0.4 {
		t.Errorf("agent slope: %v", cfg.Agent.Slope)
	}
	// Untouched fields keep their defaults.
	if cfg.GlobalRate != 0.5 {
		t.Errorf("global rate: %v", cfg.GlobalRate)
	}
}

func TestNormalizeClampsBadValues(t *testing.T) {
	c := Config{LocalRate: -1, DefaultMap: "HEIGHT", MaxDepth: 0, LocalRadius: 0}
	c.Normalize()
	if c.LocalRate != 2 {
		t.Errorf("local rate: %v", c.LocalRate)
	}
	if c.DefaultMap != "height" {
		t.Errorf("default map: %q", c.DefaultMap)
	}
	if c.LocalRadius != c.MaxDepth {
		t.Errorf("local radius %v should fall back to max depth %v", c.LocalRadius, c.MaxDepth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file must fail")
	}
}

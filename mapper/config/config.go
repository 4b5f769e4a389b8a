// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the mapper configuration from YAML, applies defaults
// and normalizes out-of-range values. Command-line flags may overlay the
// result after Load.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Agent describes the robot for traversability scoring.
type Agent struct {
	Step      float32 `yaml:"step"`      // max climbable step, meters
	Slope     float32 `yaml:"slope"`     // max traversable slope, rise/run
	Radius    float32 `yaml:"radius"`    // footprint radius, meters
	Height    float32 `yaml:"height"`    // clearance height, meters
	Roughness float32 `yaml:"roughness"` // roughness weight in [0, 1]
}

type Config struct {
	// Publish rates in Hz; each regime runs on its own ticker.
	LocalRate  float32 `yaml:"local_rate"`
	GlobalRate float32 `yaml:"global_rate"`

	// DefaultMap selects what /static_map serves: "height" or "cost".
	DefaultMap string `yaml:"default_map"`

	Agent Agent `yaml:"agent"`

	MaxDepth    float32 `yaml:"max_depth"`    // sensing range, meters
	MaxHeight   float32 `yaml:"max_height"`   // cutting height, meters
	ZResolution float32 `yaml:"z_resolution"` // vertical resolution, meters

	// ResolutionIndex selects a cell size from the engine's table.
	ResolutionIndex int `yaml:"resolution_index"`

	// LocalRadius is the local window radius in meters; reconfigurable at
	// runtime through the socket.
	LocalRadius float32 `yaml:"local_radius"`

	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	ArchiveDir     string `yaml:"archive_dir"` // empty disables the archive
	CloudStage     string `yaml:"cloud_stage"` // empty runs offline
	StatsLog       string `yaml:"stats_log"`
}

// Load reads the YAML file at path; an empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("mapper.yaml: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

func defaults() Config {
	return Config{
		LocalRate:  2,
		GlobalRate: 0.5,
		DefaultMap: "height",
		Agent: Agent{
			Step:      0.15,
			Slope:     0.6,
			Radius:    0.3,
			Height:    0.5,
			Roughness: 0.2,
		},
		MaxDepth:        3.5,
		MaxHeight:       1,
		ZResolution:     0.05,
		ResolutionIndex: 2,
		LocalRadius:     3,
		Port:            8192,
		MaxConnections:  256,
		StatsLog:        "/tmp/terramap.log",
	}
}

// Normalize clamps nonsensical values back to usable ones instead of
// failing; the mapper should come up even with a sloppy config file.
func (c *Config) Normalize() {
	if c.LocalRate <= 0 {
		c.LocalRate = 2
	}
	if c.GlobalRate <= 0 {
		c.GlobalRate = 0.5
	}
	switch strings.ToLower(strings.TrimSpace(c.DefaultMap)) {
	case "cost":
		c.DefaultMap = "cost"
	default:
		c.DefaultMap = "height"
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3.5
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 1
	}
	if c.ZResolution <= 0 {
		c.ZResolution = 0.05
	}
	if c.LocalRadius <= 0 {
		c.LocalRadius = c.MaxDepth
	}
	if c.Agent.Slope <= 0 {
		c.Agent.Slope = 0.6
	}
	if c.Agent.Roughness < 0 {
		c.Agent.Roughness = 0
	}
	if c.Port <= 0 {
		c.Port = 8192
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 256
	}
}

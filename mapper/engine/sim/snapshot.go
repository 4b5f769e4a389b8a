// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"time"

	"github.com/chewxy/math32"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

type chunk struct {
	engine.Dimension
	updated   time.Time
	valid     []bool
	elevation []float32
	cost      []float32
	color     []float32
}

func (c *chunk) IsValid(i int) bool {
	return i >= 0 && i < len(c.valid) && c.valid[i]
}

func (c *chunk) At(layer engine.Layer, i int) float32 {
	switch layer {
	case engine.Elevation:
		return c.elevation[i]
	case engine.Cost:
		return c.cost[i]
	case engine.Color:
		return c.color[i]
	}
	return 0
}

// snapshot is an immutable view of the chunk set at one reference time.
type snapshot struct {
	ref    time.Time
	chunks []*chunk
}

func (s *snapshot) ReferenceTime() time.Time {
	return s.ref
}

func (s *snapshot) ChunksNear(xn, yn, radius float32) []engine.Chunk {
	origin := raster.Vec2f{X: xn, Y: yn}
	var out []engine.Chunk
	for _, c := range s.chunks {
		b := c.Bounds()
		center := raster.Vec2f{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
		halfDiag := math32.Hypot(b.Width(), b.Height()) / 2
		if center.Distance(origin) <= radius+halfDiag {
			out = append(out, c)
		}
	}
	return out
}

func (s *snapshot) ChunksChangedSince(t time.Time) []engine.Chunk {
	var out []engine.Chunk
	for _, c := range s.chunks {
		if c.updated.After(t) {
			out = append(out, c)
		}
	}
	return out
}

func (s *snapshot) AllValidChunks() []engine.Chunk {
	out := make([]engine.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c
	}
	return out
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"time"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

// stubChunk is a uniform-valued terrain tile for builder tests.
type stubChunk struct {
	engine.Dimension
	elevation float32
	cost      float32
	color     float32
	invalid   map[int]bool
	updated   time.Time
}

func squareChunk(minX, minY, extent float32, side int, elevation, cost float32) *stubChunk {
	return &stubChunk{
		Dimension: engine.Dimension{
			NativeBounds: raster.BoundsFrom(minX, minY, minX+extent, minY+extent),
			Side:         side,
		},
		elevation: elevation,
		cost:      cost,
	}
}

func (c *stubChunk) IsValid(i int) bool {
	return !c.invalid[i]
}

func (c *stubChunk) At(layer engine.Layer, i int) float32 {
	switch layer {
	case engine.Elevation:
		return c.elevation
	case engine.Cost:
		return c.cost
	default:
		return c.color
	}
}

// stubSnapshot over-reports on the radius query; the builders are expected
// to cut per cell.
type stubSnapshot struct {
	ref    time.Time
	chunks []*stubChunk
}

func (s *stubSnapshot) ReferenceTime() time.Time {
	return s.ref
}

func (s *stubSnapshot) ChunksNear(xn, yn, radius float32) []engine.Chunk {
	return s.AllValidChunks()
}

func (s *stubSnapshot) ChunksChangedSince(t time.Time) []engine.Chunk {
	out := make([]engine.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.updated.After(t) {
			out = append(out, c)
		}
	}
	return out
}

func (s *stubSnapshot) AllValidChunks() []engine.Chunk {
	out := make([]engine.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c
	}
	return out
}

func demandFor(products ...Product) Counts {
	var c Counts
	for _, p := range products {
		c[p]++
	}
	return c
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import (
	"time"

	"github.com/chewxy/math32"
)

// Unknown marks a cell no chunk has produced a valid sample for.
const Unknown = int8(-1)

// Grid is a dense row-major raster of one scalar layer (height or cost).
// Cell values are Unknown or in [0, 100]. Data is always Width*Height long.
type Grid struct {
	Resolution float32   `json:"resolution"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Origin     Vec2f     `json:"origin"` // map-frame coordinate of cell (0,0)
	Stamp      time.Time `json:"stamp"`
	Data       []int8    `json:"data"`
}

func NewGrid(resolution float32) *Grid {
	return &Grid{Resolution: resolution}
}

// Init sizes the grid for the given origin and cell counts and resets every
// cell to Unknown. The backing buffer is reused when large enough.
func (g *Grid) Init(origin Vec2f, width, height int) {
	g.Origin = origin
	g.Width = width
	g.Height = height

	n := width * height
	if cap(g.Data) < n {
		g.Data = make([]int8, n)
	}
	g.Data = g.Data[:n]
	g.Reset()
}

func (g *Grid) Reset() {
	for i := range g.Data {
		g.Data[i] = Unknown
	}
}

func (g *Grid) Projector() Projector {
	return Projector{
		Origin:     g.Origin,
		Resolution: g.Resolution,
		Width:      g.Width,
		Height:     g.Height,
	}
}

// CoveredBounds is the map-frame rectangle the grid spans.
func (g *Grid) CoveredBounds() Bounds {
	return Bounds{
		MinX: g.Origin.X,
		MinY: g.Origin.Y,
		MaxX: g.Origin.X + float32(g.Width)*g.Resolution,
		MaxY: g.Origin.Y + float32(g.Height)*g.Resolution,
	}
}

func (g *Grid) At(u, v int) int8 {
	return g.Data[u+v*g.Width]
}

// Clone copies the grid for handoff; published grids are immutable.
func (g *Grid) Clone() *Grid {
	c := *g
	c.Data = make([]int8, len(g.Data))
	copy(c.Data, g.Data)
	return &c
}

// NormalizeHeight converts a raw elevation to the raster encoding
// round(|h/maxHeight|*100). Sign is deliberately discarded; the cloud and
// marker products keep it.
func NormalizeHeight(h, maxHeight float32) int8 {
	if maxHeight == 0 {
		return Unknown
	}
	n := math32.Round(math32.Abs(h/maxHeight) * 100)
	if math32.IsNaN(n) || math32.IsInf(n, 0) {
		return Unknown
	}
	if n > 100 {
		n = 100
	}
	return int8(n)
}

// NormalizeCost converts a raw traversability cost in [0, 1] to [0, 100].
func NormalizeCost(c float32) int8 {
	n := math32.Round(c * 100)
	if math32.IsNaN(n) || math32.IsInf(n, 0) || n < 0 {
		return Unknown
	}
	if n > 100 {
		n = 100
	}
	return int8(n)
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import "github.com/chewxy/math32"

// Projector maps engine-native horizontal coordinates to raster cell indices
// and back. The engine's X and Y axes are swapped relative to the map frame
// and native X is negated:
//
//	u = round((yn - originX) / resolution)
//	v = round((-xn - originY) / resolution)
//
// This convention is a fixed contract with the terrain engine; every product
// (grids, cloud, markers) uses it.
type Projector struct {
	Origin     Vec2f
	Resolution float32
	Width      int
	Height     int
}

// Cell returns the raster column and row of a native coordinate, unclamped.
func (p Projector) Cell(xn, yn float32) (u, v int) {
	u = int(math32.Round((yn - p.Origin.X) / p.Resolution))
	v = int(math32.Round((-xn - p.Origin.Y) / p.Resolution))
	return
}

// Index returns the linear cell index of a native coordinate. ok is false
// when the projection falls outside the raster; out-of-range cells are
// dropped by callers, never wrapped or clamped.
func (p Projector) Index(xn, yn float32) (idx int, ok bool) {
	u, v := p.Cell(xn, yn)
	if u < 0 || u >= p.Width || v < 0 || v >= p.Height {
		return 0, false
	}
	idx = u + v*p.Width
	if idx >= p.Width*p.Height {
		return 0, false
	}
	return idx, true
}

// World returns the map-frame coordinate of cell (u, v).
func (p Projector) World(u, v int) Vec2f {
	return Vec2f{
		X: p.Origin.X + float32(u)*p.Resolution,
		Y: p.Origin.Y + float32(v)*p.Resolution,
	}
}

// WorldPoint maps a native coordinate directly into the map frame.
func WorldPoint(xn, yn float32) Vec2f {
	return Vec2f{X: yn, Y: -xn}
}

// WorldBounds converts a native-frame rectangle to map-frame bounds under
// the swapped convention.
func WorldBounds(native Bounds) Bounds {
	return Bounds{
		MinX: native.MinY,
		MaxX: native.MaxY,
		MinY: -native.MaxX,
		MaxY: -native.MinX,
	}
}

// NativeBounds is the inverse of WorldBounds.
func NativeBounds(world Bounds) Bounds {
	return Bounds{
		MinX: -world.MaxY,
		MaxX: -world.MinY,
		MinY: world.MinX,
		MaxY: world.MaxX,
	}
}

// CellsFor returns the cell count covering a world-space extent at the given
// resolution.
func CellsFor(extent, resolution float32) int {
	return int(math32.Ceil(extent/resolution)) + 1
}

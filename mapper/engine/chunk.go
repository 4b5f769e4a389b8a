// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import "terramap/mapper/raster"

// Dimension describes a square chunk's cell layout: native bounds plus the
// cell count per side. Implementations embed it to satisfy the geometric
// half of the Chunk interface.
type Dimension struct {
	NativeBounds raster.Bounds
	Side         int
}

func (d Dimension) Bounds() raster.Bounds {
	return d.NativeBounds
}

func (d Dimension) CellCount() int {
	return d.Side * d.Side
}

// CellStep is the native extent of one cell.
func (d Dimension) CellStep() float32 {
	if d.Side == 0 {
		return 0
	}
	return d.NativeBounds.Width() / float32(d.Side)
}

func (d Dimension) CellPosition(i int) (xn, yn float32, ok bool) {
	if i < 0 || i >= d.CellCount() {
		return 0, 0, false
	}
	step := d.CellStep()
	xn = d.NativeBounds.MinX + float32(i%d.Side)*step
	yn = d.NativeBounds.MinY + float32(i/d.Side)*step
	return xn, yn, true
}

// UnionBounds is the native bounding box of a chunk set, recomputed each
// cycle to drive local raster placement and global resize decisions.
func UnionBounds(chunks []Chunk) raster.Bounds {
	b := raster.EmptyBounds()
	for _, c := range chunks {
		b = b.Extend(c.Bounds())
	}
	return b
}

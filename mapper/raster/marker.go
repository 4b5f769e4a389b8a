// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import (
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// CubeList is an unordered sequence of unit cubes, one vertical stack per
// non-zero-height cell. It cannot be maintained incrementally because stack
// height is derived from a live height read; it is rebuilt every cycle it is
// demanded.
type CubeList struct {
	CellSize float32   `json:"cellSize"` // cube x/y scale, the grid resolution
	ZStep    float32   `json:"zStep"`    // cube z scale, the vertical resolution
	Stamp    time.Time `json:"stamp"`
	Points   []Vec3f   `json:"points"`
	Colors   []float32 `json:"colors"` // packed, congruent with Points

	mu sync.Mutex
}

func NewCubeList(cellSize, zStep float32) *CubeList {
	return &CubeList{CellSize: cellSize, ZStep: zStep}
}

func (m *CubeList) Reset() {
	m.Points = m.Points[:0]
	m.Colors = m.Colors[:0]
}

func (m *CubeList) Len() int {
	return len(m.Points)
}

// AppendStack emits ceil(|height|/ZStep) cubes at (x, y), stacked from z=0
// toward the sign of height. Safe for concurrent builders.
func (m *CubeList) AppendStack(x, y, height, packedColor float32) {
	if math32.IsNaN(height) || math32.IsInf(height, 0) {
		return
	}
	count := int(math32.Ceil(math32.Abs(height) / m.ZStep))
	if count == 0 {
		return
	}

	m.mu.Lock()
	for i := 1; i <= count; i++ {
		z := float32(i) * m.ZStep
		if height < 0 {
			z = -z
		}
		m.Points = append(m.Points, Vec3f{X: x, Y: y, Z: z})
		m.Colors = append(m.Colors, packedColor)
	}
	m.mu.Unlock()
}

// Box is one solid axis-aligned box covering a cell's full height.
type Box struct {
	ID     int      `json:"id"` // the cell's linear raster index
	Center Vec3f    `json:"center"`
	Size   Vec3f    `json:"size"`
	Color  ColorVec `json:"color"`
}

// BoxList holds one box per non-zero-height cell, rebuilt every demanded
// cycle. TTL tells consumers how long the boxes stay meaningful.
type BoxList struct {
	TTL   time.Duration `json:"ttl"`
	Stamp time.Time     `json:"stamp"`
	Boxes []Box         `json:"boxes"`

	mu sync.Mutex
}

func NewBoxList(ttl time.Duration) *BoxList {
	return &BoxList{TTL: ttl}
}

func (m *BoxList) Reset() {
	m.Boxes = m.Boxes[:0]
}

func (m *BoxList) Len() int {
	return len(m.Boxes)
}

// AppendCell emits a box scaled (cellSize, cellSize, |height|) centered at
// z = height/2. Cells with zero height emit nothing.
func (m *BoxList) AppendCell(id int, x, y, height, cellSize float32, col ColorVec) {
	h := math32.Abs(height)
	if h == 0 || math32.IsNaN(h) || math32.IsInf(h, 0) {
		return
	}

	box := Box{
		ID:     id,
		Center: Vec3f{X: x, Y: y, Z: height / 2},
		Size:   Vec3f{X: cellSize, Y: cellSize, Z: h},
		Color:  col,
	}

	m.mu.Lock()
	m.Boxes = append(m.Boxes, box)
	m.mu.Unlock()
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import (
	"time"

	"github.com/chewxy/math32"
)

// Point is one cell sample of a height point cloud. Color is a packed RGB
// float (see PackColor). Z is NaN for cells with no sample.
type Point struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Z     float32 `json:"z"`
	Color float32 `json:"rgb"`
}

var nan32 = math32.NaN()

// PointCloud is a dense buffer of Width*Height points whose indices are
// congruent with the corresponding Grid.
type PointCloud struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Stamp  time.Time `json:"stamp"`
	Points []Point   `json:"points"`
}

// Ensure reallocates (and resets) the buffer only when dimensions change.
// It reports whether a reallocation happened.
func (c *PointCloud) Ensure(width, height int) bool {
	if c.Width == width && c.Height == height && c.Points != nil {
		return false
	}
	c.Width = width
	c.Height = height
	c.Points = make([]Point, width*height)
	c.Reset()
	return true
}

func (c *PointCloud) Reset() {
	for i := range c.Points {
		c.Points[i] = Point{Z: nan32}
	}
}

func (c *PointCloud) Set(idx int, p Point) {
	c.Points[idx] = p
}

// Clear marks one cell as having no sample.
func (c *PointCloud) Clear(idx int) {
	c.Points[idx] = Point{Z: nan32}
}

// Clone copies the cloud for handoff.
func (c *PointCloud) Clone() *PointCloud {
	out := *c
	out.Points = make([]Point, len(c.Points))
	copy(out.Points, c.Points)
	return &out
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"time"

	"terramap/mapper/builder"
	"terramap/mapper/raster"
)

type (
	// GridPayload is a published height or cost raster.
	GridPayload struct {
		Topic      string  `json:"topic"`
		Stamp      int64   `json:"stamp"` // unix millis
		Resolution float32 `json:"resolution"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		OriginX    float32 `json:"originX"`
		OriginY    float32 `json:"originY"`
		Data       []int8  `json:"data"`
	}

	// CloudPayload is a published height point cloud.
	CloudPayload struct {
		Topic  string         `json:"topic"`
		Stamp  int64          `json:"stamp"`
		Width  int            `json:"width"`
		Height int            `json:"height"`
		Points []raster.Point `json:"points"`
	}

	// CubesPayload is a published cube-list marker.
	CubesPayload struct {
		Topic    string        `json:"topic"`
		Stamp    int64         `json:"stamp"`
		CellSize float32       `json:"cellSize"`
		ZStep    float32       `json:"zStep"`
		Points   []raster.Vec3f `json:"points"`
		Colors   []float32     `json:"colors"`
	}

	// BoxesPayload is a published box-marker array.
	BoxesPayload struct {
		Topic string       `json:"topic"`
		Stamp int64        `json:"stamp"`
		TTL   int64        `json:"ttl"` // millis
		Boxes []raster.Box `json:"boxes"`
	}

	// ImagePayload is a PNG-encoded global map image.
	ImagePayload struct {
		Topic string `json:"topic"`
		Stamp int64  `json:"stamp"`
		PNG   []byte `json:"png"` // base64 on the wire
	}
)

func init() {
	registerOutbound(
		GridPayload{},
		CloudPayload{},
		CubesPayload{},
		BoxesPayload{},
		ImagePayload{},
	)
}

// Payloads are immutable after construction; one instance fans out to every
// subscriber and stays cached for the query handlers, so nothing is pooled.
func (GridPayload) Pool()  {}
func (CloudPayload) Pool() {}
func (CubesPayload) Pool() {}
func (BoxesPayload) Pool() {}
func (ImagePayload) Pool() {}

func unixMillis(t time.Time) int64 {
	return t.UnixNano() / 1e6
}

// The constructors copy out of the builder buffers; callers hold the regime
// lock for the duration.

func newGridPayload(p builder.Product, g *raster.Grid) GridPayload {
	data := make([]int8, len(g.Data))
	copy(data, g.Data)
	return GridPayload{
		Topic:      p.String(),
		Stamp:      unixMillis(g.Stamp),
		Resolution: g.Resolution,
		Width:      g.Width,
		Height:     g.Height,
		OriginX:    g.Origin.X,
		OriginY:    g.Origin.Y,
		Data:       data,
	}
}

func newCloudPayload(p builder.Product, c *raster.PointCloud) CloudPayload {
	points := make([]raster.Point, len(c.Points))
	copy(points, c.Points)
	return CloudPayload{
		Topic:  p.String(),
		Stamp:  unixMillis(c.Stamp),
		Width:  c.Width,
		Height: c.Height,
		Points: points,
	}
}

func newCubesPayload(p builder.Product, m *raster.CubeList) CubesPayload {
	points := make([]raster.Vec3f, len(m.Points))
	copy(points, m.Points)
	colors := make([]float32, len(m.Colors))
	copy(colors, m.Colors)
	return CubesPayload{
		Topic:    p.String(),
		Stamp:    unixMillis(m.Stamp),
		CellSize: m.CellSize,
		ZStep:    m.ZStep,
		Points:   points,
		Colors:   colors,
	}
}

func newBoxesPayload(p builder.Product, m *raster.BoxList) BoxesPayload {
	boxes := make([]raster.Box, len(m.Boxes))
	copy(boxes, m.Boxes)
	return BoxesPayload{
		Topic: p.String(),
		Stamp: unixMillis(m.Stamp),
		TTL:   int64(m.TTL / time.Millisecond),
		Boxes: boxes,
	}
}

func newImagePayload(p builder.Product, stamp time.Time, png []byte) ImagePayload {
	return ImagePayload{
		Topic: p.String(),
		Stamp: unixMillis(stamp),
		PNG:   png,
	}
}

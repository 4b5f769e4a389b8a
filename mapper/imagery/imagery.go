// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package imagery packs finished global buffers into images. The aggregation
// core never sees an encoder; this package only consumes what the builders
// already produced.
package imagery

import (
	"bytes"
	"image"
	"image/png"

	"terramap/mapper/raster"
)

// RenderGrid maps a scalar grid to grayscale: Unknown is black, values scale
// 0..100 over the remaining range. Row v=0 is the bottom of the map, so rows
// are flipped into image space.
func RenderGrid(g *raster.Grid) image.Image {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))

	for v := 0; v < g.Height; v++ {
		row := (g.Height - 1 - v) * img.Stride
		for u := 0; u < g.Width; u++ {
			val := g.At(u, v)
			if val < 0 {
				continue
			}
			img.Pix[row+u] = 55 + uint8(val)*2
		}
	}

	return img
}

// RenderCloud maps the point cloud's packed colors to RGBA. Cells without a
// sample stay transparent.
func RenderCloud(c *raster.PointCloud) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))

	for v := 0; v < c.Height; v++ {
		for u := 0; u < c.Width; u++ {
			p := c.Points[u+v*c.Width]
			if p.Z != p.Z { // NaN, no sample
				continue
			}
			img.SetRGBA(u, c.Height-1-v, raster.DepackColor(p.Color).Color())
		}
	}

	return img
}

// EncodePNG renders an image to a PNG byte buffer for publishing or upload.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

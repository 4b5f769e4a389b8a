// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package imagery

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"terramap/mapper/raster"
)

func TestRenderGrid(t *testing.T) {
	g := raster.NewGrid(0.1)
	g.Init(raster.Vec2f{}, 3, 2)
	g.Data[0] = 0   // (0, 0), bottom-left
	g.Data[4] = 100 // (1, 1)

	img := RenderGrid(g).(*image.Gray)
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds: %v", img.Bounds())
	}
	// v=0 lands on the bottom image row.
	if got := img.GrayAt(0, 1).Y; got != 55 {
		t.Errorf("zero cell: got %d, want 55", got)
	}
	if got := img.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("full cell: got %d, want 255", got)
	}
	if got := img.GrayAt(2, 1).Y; got != 0 {
		t.Errorf("unknown cell: got %d, want 0", got)
	}
}

func TestRenderCloud(t *testing.T) {
	c := &raster.PointCloud{}
	c.Ensure(2, 2)
	c.Set(0, raster.Point{Z: 0.5, Color: raster.PackColor(raster.RGB(255, 0, 0))})

	img := RenderCloud(c).(*image.RGBA)
	px := img.RGBAAt(0, 1)
	if px.R != 255 || px.G != 0 || px.B != 0 || px.A != 255 {
		t.Errorf("sampled cell: %v", px)
	}
	if img.RGBAAt(1, 1).A != 0 {
		t.Error("empty cell must stay transparent")
	}
}

func TestEncodePNG(t *testing.T) {
	g := raster.NewGrid(0.1)
	g.Init(raster.Vec2f{}, 4, 4)

	buf, err := EncodePNG(RenderGrid(g))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("decoded bounds: %v", decoded.Bounds())
	}
}

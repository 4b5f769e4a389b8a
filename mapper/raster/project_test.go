// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
)

func approx(a, b, tolerance float32) bool {
	return math32.Abs(a-b) <= tolerance
}

func TestProjectorCell(t *testing.T) {
	p := Projector{Origin: Vec2f{X: -5, Y: -5}, Resolution: 0.5, Width: 20, Height: 20}

	tests := []struct {
		xn, yn float32
		u, v   int
	}{
		{0, 0, 10, 10},
		{0, -5, 0, 10},
		{-4.5, 0, 10, 19}, // native -x maps to +v
		{4.5, 0, 10, 1},
		{0, 4.5, 19, 10},
	}

	for _, test := range tests {
		u, v := p.Cell(test.xn, test.yn)
		if u != test.u || v != test.v {
			t.Errorf("Cell(%v, %v): expected (%d, %d), got (%d, %d)", test.xn, test.yn, test.u, test.v, u, v)
		}
	}
}

func TestProjectorOutOfRange(t *testing.T) {
	p := Projector{Origin: Vec2f{}, Resolution: 0.1, Width: 10, Height: 10}

	// Outside in every direction; must be rejected, never wrapped.
	for _, c := range [][2]float32{{0, -0.1}, {0, 1.1}, {0.1, 0}, {-1.1, 0}} {
		if idx, ok := p.Index(c[0], c[1]); ok {
			t.Errorf("Index(%v, %v): expected out of range, got %d", c[0], c[1], idx)
		}
	}

	if _, ok := p.Index(-0.5, 0.5); !ok {
		t.Error("expected in-range index")
	}
}

func TestProjectorRoundTrip(t *testing.T) {
	p := Projector{Origin: Vec2f{X: -10, Y: -10}, Resolution: 0.25, Width: 80, Height: 80}
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		xn := r.Float32()*18 - 9
		yn := r.Float32()*18 - 9

		idx, ok := p.Index(xn, yn)
		if !ok {
			t.Fatalf("Index(%v, %v) unexpectedly out of range", xn, yn)
		}

		world := p.World(idx%p.Width, idx/p.Width)
		if !approx(world.X, yn, p.Resolution) || !approx(world.Y, -xn, p.Resolution) {
			t.Fatalf("round trip of (%v, %v) gave %+v", xn, yn, world)
		}
	}
}

func TestWorldBoundsRoundTrip(t *testing.T) {
	native := BoundsFrom(-2, -1, 3, 4)
	world := WorldBounds(native)

	if world.MinX != -1 || world.MaxX != 4 || world.MinY != -3 || world.MaxY != 2 {
		t.Errorf("unexpected world bounds %+v", world)
	}
	if NativeBounds(world) != native {
		t.Errorf("NativeBounds(WorldBounds(b)) = %+v, want %+v", NativeBounds(world), native)
	}
}

func TestCellsFor(t *testing.T) {
	if n := CellsFor(1.0, 0.1); n != 11 {
		t.Errorf("CellsFor(1.0, 0.1) = %d, want 11", n)
	}
	if n := CellsFor(0.95, 0.1); n != 11 {
		t.Errorf("CellsFor(0.95, 0.1) = %d, want 11", n)
	}
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"bytes"
	"testing"
	"time"

	"terramap/mapper/raster"
)

func TestLocalUniformHeight(t *testing.T) {
	// One fully valid chunk at 0.5m elevation with a 1m cutting height
	// must raster as 50 in every covered cell.
	chunk := squareChunk(0, 0, 1, 10, 0.5, 0.2)
	snap := &stubSnapshot{ref: time.Now(), chunks: []*stubChunk{chunk}}

	b := NewLocalBuilder(0.1, 1, 0.1, 5, time.Second)
	counts := demandFor(LocalHeight, LocalCloud, LocalCubes)

	out, err := b.Build(snap, 0.5, -0.5, counts, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if out.Chunks != 1 {
		t.Errorf("chunks: got %d, want 1", out.Chunks)
	}
	if out.Cost != nil || out.Boxes != nil {
		t.Error("undemanded products must be nil")
	}

	covered := 0
	for _, v := range out.Height.Data {
		switch v {
		case 50:
			covered++
		case raster.Unknown:
		default:
			t.Fatalf("unexpected cell value %d", v)
		}
	}
	if covered != 100 {
		t.Errorf("covered cells: got %d, want 100", covered)
	}

	samples := 0
	for i := range out.Cloud.Points {
		p := out.Cloud.Points[i]
		if p.Z != p.Z { // NaN
			continue
		}
		samples++
		if p.Z != 0.5 {
			t.Fatalf("cloud z: got %v, want 0.5", p.Z)
		}
	}
	if samples != 100 {
		t.Errorf("cloud samples: got %d, want 100", samples)
	}

	// Cell (xn=0.3, yn=0.7) lands at u=7, v=7 with a half-cell offset
	// applied to the point position.
	idx := 7 + 7*out.Height.Width
	p := out.Cloud.Points[idx]
	if !approx32(p.X, 0.75) || !approx32(p.Y, -0.25) {
		t.Errorf("cloud point: got (%v, %v), want (0.75, -0.25)", p.X, p.Y)
	}

	// Each 0.5m stack is 5 cubes at a 0.1m vertical resolution.
	if out.Cubes.Len() != 500 {
		t.Errorf("cubes: got %d, want 500", out.Cubes.Len())
	}
}

func TestLocalChunkBeyondRadius(t *testing.T) {
	// The engine may over-report on the radius query; every cell of a
	// chunk outside the window must still be dropped.
	chunk := squareChunk(5, 5, 1, 8, 0.5, 0.2)
	snap := &stubSnapshot{ref: time.Now(), chunks: []*stubChunk{chunk}}

	b := NewLocalBuilder(0.1, 1, 0.1, 2, time.Second)
	counts := demandFor(LocalHeight, LocalCost, LocalCloud, LocalCubes, LocalBoxes)

	out, err := b.Build(snap, 0, 0, counts, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range out.Height.Data {
		if v != raster.Unknown {
			t.Fatalf("height cell written outside radius: %d", v)
		}
	}
	for _, v := range out.Cost.Data {
		if v != raster.Unknown {
			t.Fatalf("cost cell written outside radius: %d", v)
		}
	}
	for i := range out.Cloud.Points {
		if z := out.Cloud.Points[i].Z; z == z {
			t.Fatal("cloud sample written outside radius")
		}
	}
	if out.Cubes.Len() != 0 || out.Boxes.Len() != 0 {
		t.Errorf("markers written outside radius: %d cubes, %d boxes", out.Cubes.Len(), out.Boxes.Len())
	}
}

func TestLocalRebuildIdempotent(t *testing.T) {
	chunk := squareChunk(-0.5, -0.5, 1, 10, 0.3, 0.7)
	snap := &stubSnapshot{ref: time.Now(), chunks: []*stubChunk{chunk}}

	b := NewLocalBuilder(0.05, 1, 0.05, 3, time.Second)
	counts := demandFor(LocalHeight, LocalCost)
	stamp := time.Now()

	first, err := b.Build(snap, 0, 0, counts, stamp)
	if err != nil {
		t.Fatal(err)
	}
	height := append([]int8(nil), first.Height.Data...)
	cost := append([]int8(nil), first.Cost.Data...)

	second, err := b.Build(snap, 0, 0, counts, stamp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(int8Bytes(height), int8Bytes(second.Height.Data)) {
		t.Error("height raster differs across identical cycles")
	}
	if !bytes.Equal(int8Bytes(cost), int8Bytes(second.Cost.Data)) {
		t.Error("cost raster differs across identical cycles")
	}
}

func TestLocalDemandGating(t *testing.T) {
	chunk := squareChunk(0, 0, 1, 10, 0.5, 0.2)
	snap := &stubSnapshot{ref: time.Now(), chunks: []*stubChunk{chunk}}

	b := NewLocalBuilder(0.1, 1, 0.1, 5, time.Second)

	out, err := b.Build(snap, 0.5, -0.5, demandFor(LocalHeight), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if out.Height == nil {
		t.Fatal("demanded product missing")
	}
	// The undemanded buffers were never even sized.
	if len(b.cost.Data) != 0 {
		t.Error("cost buffer written without demand")
	}
	if len(b.cloud.Points) != 0 {
		t.Error("cloud buffer written without demand")
	}
	if b.cubes.Len() != 0 || b.boxes.Len() != 0 {
		t.Error("marker buffers written without demand")
	}

	out, err = b.Build(snap, 0.5, -0.5, Counts{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if out.Height != nil || out.Cost != nil || out.Cloud != nil || out.Cubes != nil || out.Boxes != nil {
		t.Error("products produced with zero demand")
	}
}

func TestLocalNoChunks(t *testing.T) {
	b := NewLocalBuilder(0.1, 1, 0.1, 5, time.Second)
	snap := &stubSnapshot{ref: time.Now()}
	if _, err := b.Build(snap, 0, 0, demandFor(LocalHeight), time.Now()); err != ErrNoChunks {
		t.Errorf("got %v, want ErrNoChunks", err)
	}
}

func TestLocalRadiusReconfigure(t *testing.T) {
	b := NewLocalBuilder(0.1, 1, 0.1, 5, time.Second)
	b.SetRadius(2.5)
	if r := b.Radius(); r != 2.5 {
		t.Errorf("radius: got %v, want 2.5", r)
	}
}

func approx32(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func int8Bytes(data []int8) []byte {
	out := make([]byte, len(data))
	for i, v := range data {
		out[i] = byte(v)
	}
	return out
}

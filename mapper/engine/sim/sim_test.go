// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"testing"
	"time"

	"github.com/chewxy/math32"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

func testParams() engine.Params {
	return engine.Params{
		AgentSlope:     0.5,
		AgentRoughness: 0.2,
		MaxDepth:       3,
		MaxHeight:      1,
		ZResolution:    0.05,
		Resolution:     0.1,
	}
}

// acquire drives one request/poll/retrieve round.
func acquire(t *testing.T, e *Engine) engine.Snapshot {
	t.Helper()
	e.Request()

	deadline := time.Now().Add(5 * time.Second)
	for e.Status() != nil {
		if time.Now().After(deadline) {
			t.Fatal("snapshot never became ready")
		}
		time.Sleep(time.Millisecond)
	}

	snap, err := e.Retrieve()
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestEngineLifecycle(t *testing.T) {
	e := New(1)

	if err := e.Status(); err != engine.ErrNotEnabled {
		t.Errorf("status before enable: got %v, want ErrNotEnabled", err)
	}
	if err := e.Enable(engine.Params{}); err == nil {
		t.Error("zero params must not enable")
	}
	if err := e.Enable(testParams()); err != nil {
		t.Fatal(err)
	}
	if err := e.Status(); err != engine.ErrNoSnapshot {
		t.Errorf("status before first request: got %v, want ErrNoSnapshot", err)
	}

	snap := acquire(t, e)
	if snap.ReferenceTime().IsZero() {
		t.Error("snapshot has no reference time")
	}
	if len(snap.AllValidChunks()) == 0 {
		t.Error("snapshot has no chunks")
	}

	// The result was consumed; nothing is queued until the next request.
	if err := e.Status(); err != engine.ErrNoSnapshot {
		t.Errorf("status after retrieve: got %v, want ErrNoSnapshot", err)
	}
	if _, err := e.Retrieve(); err == nil {
		t.Error("retrieve without a ready snapshot must fail")
	}
}

func TestRequestAbsorbedWhileReady(t *testing.T) {
	e := New(2)
	if err := e.Enable(testParams()); err != nil {
		t.Fatal(err)
	}

	first := acquire(t, e)

	e.Request()
	second := acquire(t, e)
	if !second.ReferenceTime().After(first.ReferenceTime()) {
		t.Error("second snapshot must be newer")
	}
}

func TestSnapshotQueries(t *testing.T) {
	e := New(3)
	params := testParams()
	if err := e.Enable(params); err != nil {
		t.Fatal(err)
	}
	snap := acquire(t, e)

	all := snap.AllValidChunks()
	near := snap.ChunksNear(0, 0, params.MaxDepth)
	if len(near) == 0 || len(near) > len(all) {
		t.Fatalf("near query: got %d of %d chunks", len(near), len(all))
	}
	for _, c := range near {
		b := c.Bounds()
		center := raster.Vec2f{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
		halfDiag := math32.Hypot(b.Width(), b.Height()) / 2
		if center.Length() > params.MaxDepth+halfDiag {
			t.Errorf("chunk at %v outside query radius", center)
		}
	}

	if n := len(snap.ChunksChangedSince(snap.ReferenceTime())); n != 0 {
		t.Errorf("changed since reference: got %d, want 0", n)
	}
	if n := len(snap.ChunksChangedSince(time.Time{})); n != len(all) {
		t.Errorf("changed since epoch: got %d, want %d", n, len(all))
	}
}

func TestChunkCellsWithinLimits(t *testing.T) {
	e := New(4)
	params := testParams()
	if err := e.Enable(params); err != nil {
		t.Fatal(err)
	}
	snap := acquire(t, e)

	for _, c := range snap.AllValidChunks() {
		for i := 0; i < c.CellCount(); i++ {
			if !c.IsValid(i) {
				continue
			}
			if h := c.At(engine.Elevation, i); math32.Abs(h) > params.MaxHeight {
				t.Fatalf("elevation %v beyond cutting height", h)
			}
			if cost := c.At(engine.Cost, i); cost < 0 || cost > 1 {
				t.Fatalf("cost %v outside [0, 1]", cost)
			}
		}
	}
}

func TestFrontierKeepsChanging(t *testing.T) {
	e := New(5)
	if err := e.Enable(testParams()); err != nil {
		t.Fatal(err)
	}

	first := acquire(t, e)
	e.Request()
	second := acquire(t, e)

	if len(second.ChunksChangedSince(first.ReferenceTime())) == 0 {
		t.Error("no chunks changed between computations")
	}
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"testing"
	"time"

	"terramap/mapper/engine"
	"terramap/mapper/engine/sim"
	"terramap/mapper/raster"
)

// Drives both builders with the real engine through the gate and checks the
// published value domain end to end.
func TestBuildersWithSimEngine(t *testing.T) {
	eng := sim.New(7)
	err := eng.Enable(engine.Params{
		AgentSlope:     0.5,
		AgentRoughness: 0.2,
		MaxDepth:       3,
		MaxHeight:      1,
		ZResolution:    0.05,
		Resolution:     0.1,
	})
	if err != nil {
		t.Fatal(err)
	}

	gate := NewSyncGate(eng)
	gate.Backoff = time.Millisecond

	snap, err := gate.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	camX, camY := eng.Pose()
	demand := demandSet(LocalHeight, LocalCost, LocalCloud, GlobalHeight, GlobalCost, GlobalCloud)

	local := NewLocalBuilder(0.1, 1, 0.05, 3, time.Second)
	lp, err := local.Build(snap, camX, camY, demand.Sample(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if lp.Chunks == 0 {
		t.Fatal("no chunks around the rover")
	}
	checkDomain(t, lp.Height.Data)
	checkDomain(t, lp.Cost.Data)

	global := NewGlobalBuilder(0.1, 1, 0.05)
	gp, err := global.Build(snap, demand, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !gp.Full {
		t.Error("first global cycle must be full")
	}
	checkDomain(t, gp.Height.Data)
	checkDomain(t, gp.Cost.Data)

	// The grid and cloud stay congruent: a sampled cloud cell always has a
	// known height cell behind it.
	for i := range gp.Cloud.Points {
		if z := gp.Cloud.Points[i].Z; z == z && gp.Height.Data[i] == raster.Unknown {
			t.Fatal("cloud sample over unknown height cell")
		}
	}
}

func checkDomain(t *testing.T, data []int8) {
	t.Helper()
	for _, v := range data {
		if v != raster.Unknown && (v < 0 || v > 100) {
			t.Fatalf("cell value %d outside domain", v)
		}
	}
}

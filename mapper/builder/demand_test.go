// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import "testing"

func TestDemandCounts(t *testing.T) {
	d := NewDemand(nil)
	d.Subscribe(LocalHeight)
	d.Subscribe(LocalHeight)
	d.Subscribe(GlobalCost)

	if n := d.Count(LocalHeight); n != 2 {
		t.Errorf("count: got %d, want 2", n)
	}

	c := d.Sample()
	if !c.Want(LocalHeight) || !c.Want(GlobalCost) || c.Want(LocalCloud) {
		t.Errorf("sample wrong: %v", c)
	}
	if !c.AnyLocal() || !c.AnyGlobal() {
		t.Error("regime flags wrong")
	}

	d.Unsubscribe(LocalHeight)
	d.Unsubscribe(LocalHeight)
	d.Unsubscribe(GlobalCost)
	c = d.Sample()
	if c.AnyLocal() || c.AnyGlobal() {
		t.Error("demand should be empty after unsubscribes")
	}
}

func TestDemandFirstGlobalCallback(t *testing.T) {
	fired := 0
	d := NewDemand(func() { fired++ })

	d.Subscribe(LocalHeight)
	if fired != 0 {
		t.Error("local subscription must not force a rebuild")
	}

	d.Subscribe(GlobalCloud)
	if fired != 1 {
		t.Errorf("fired: got %d, want 1", fired)
	}
	d.Subscribe(GlobalCloud)
	if fired != 1 {
		t.Error("second subscriber must not force a rebuild")
	}

	// A different global product going 0 -> 1 forces again.
	d.Subscribe(GlobalHeightImage)
	if fired != 2 {
		t.Errorf("fired: got %d, want 2", fired)
	}

	// Dropping to zero and coming back forces again.
	d.Unsubscribe(GlobalCloud)
	d.Unsubscribe(GlobalCloud)
	d.Subscribe(GlobalCloud)
	if fired != 3 {
		t.Errorf("fired: got %d, want 3", fired)
	}
}

func TestProductNames(t *testing.T) {
	for p := Product(0); p < ProductCount; p++ {
		got, ok := ProductByName(p.String())
		if !ok || got != p {
			t.Errorf("%s does not round-trip", p)
		}
	}
	if _, ok := ProductByName("bogus"); ok {
		t.Error("unknown name resolved")
	}
	if LocalBoxes.Global() || !GlobalHeight.Global() || !GlobalCostImage.Global() {
		t.Error("regime classification wrong")
	}
}

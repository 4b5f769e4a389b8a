// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import "sync/atomic"

// Product identifies one output of the pipeline.
type Product uint8

const (
	LocalHeight Product = iota
	LocalCost
	LocalCloud
	LocalCubes
	LocalBoxes
	GlobalHeight
	GlobalCost
	GlobalCloud
	GlobalCubes
	GlobalHeightImage
	GlobalColorImage
	GlobalCostImage
	ProductCount
)

var productNames = [ProductCount]string{
	LocalHeight:       "loc_map_heightmap",
	LocalCost:         "loc_map_costmap",
	LocalCloud:        "loc_map_height_cloud",
	LocalCubes:        "loc_map_height_cubes",
	LocalBoxes:        "loc_map_height_boxes",
	GlobalHeight:      "glob_map_heightmap",
	GlobalCost:        "glob_map_costmap",
	GlobalCloud:       "glob_map_height_cloud",
	GlobalCubes:       "glob_map_height_cubes",
	GlobalHeightImage: "height_map_image",
	GlobalColorImage:  "color_map_image",
	GlobalCostImage:   "travers_map_image",
}

func (p Product) String() string {
	if p >= ProductCount {
		return "unknown"
	}
	return productNames[p]
}

// ProductByName is the inverse of String; ok is false for unknown names.
func ProductByName(name string) (Product, bool) {
	for p, n := range productNames {
		if n == name {
			return Product(p), true
		}
	}
	return ProductCount, false
}

// Global reports whether the product belongs to the persistent regime.
func (p Product) Global() bool {
	return p >= GlobalHeight && p < ProductCount
}

// Demand tracks the subscriber count of every product. A product with zero
// demand is not computed at all. The first subscriber on any global product
// triggers onFirstGlobal, used to force the next global cycle to a full
// rebuild so a new consumer never sees a raster accumulated only from
// recent deltas.
type Demand struct {
	counts        [ProductCount]int32
	onFirstGlobal func()
}

func NewDemand(onFirstGlobal func()) *Demand {
	return &Demand{onFirstGlobal: onFirstGlobal}
}

func (d *Demand) Subscribe(p Product) {
	if p >= ProductCount {
		return
	}
	if atomic.AddInt32(&d.counts[p], 1) == 1 && p.Global() && d.onFirstGlobal != nil {
		d.onFirstGlobal()
	}
}

func (d *Demand) Unsubscribe(p Product) {
	if p >= ProductCount {
		return
	}
	atomic.AddInt32(&d.counts[p], -1)
}

func (d *Demand) Count(p Product) int {
	return int(atomic.LoadInt32(&d.counts[p]))
}

// Sample reads every gauge once; builders work from one consistent sample
// per cycle.
func (d *Demand) Sample() Counts {
	var c Counts
	for p := Product(0); p < ProductCount; p++ {
		n := atomic.LoadInt32(&d.counts[p])
		if n > 0 {
			c[p] = int(n)
		}
	}
	return c
}

// Counts is one cycle's demand sample.
type Counts [ProductCount]int

func (c Counts) Want(p Product) bool {
	return c[p] > 0
}

func (c Counts) AnyLocal() bool {
	return c[LocalHeight]+c[LocalCost]+c[LocalCloud]+c[LocalCubes]+c[LocalBoxes] > 0
}

func (c Counts) AnyGlobal() bool {
	n := 0
	for p := GlobalHeight; p < ProductCount; p++ {
		n += c[p]
	}
	return n > 0
}

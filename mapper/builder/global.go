// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

// initialExtent is the world-space span of the global grids before any
// terrain has been observed, one meter centered on the map origin.
const initialExtent = 1.0

// GlobalBuilder maintains the persistent world-frame raster set. The grids
// grow (never shrink) when new terrain exceeds their bounds, and are updated
// either incrementally from changed chunks or fully from all valid chunks
// depending on the dirty flag.
type GlobalBuilder struct {
	resolution  float32
	maxHeight   float32
	zResolution float32

	height *raster.Grid
	cost   *raster.Grid
	cloud  *raster.PointCloud
	cubes  *raster.CubeList

	lastRef time.Time
	full    bool  // next update must rasterize all valid chunks
	forced  int32 // set by the first-subscriber callback

	resizes int
}

// GlobalProducts carries one cycle's outputs; products without demand are nil.
type GlobalProducts struct {
	Height *raster.Grid
	Cost   *raster.Grid
	Cloud  *raster.PointCloud
	Cubes  *raster.CubeList

	Full   bool
	Chunks int
	Counts Counts // the demand sample this cycle was built against
}

func NewGlobalBuilder(resolution, maxHeight, zResolution float32) *GlobalBuilder {
	b := &GlobalBuilder{
		resolution:  resolution,
		maxHeight:   maxHeight,
		zResolution: zResolution,
		height:      raster.NewGrid(resolution),
		cost:        raster.NewGrid(resolution),
		cloud:       &raster.PointCloud{},
		cubes:       raster.NewCubeList(resolution, zResolution),
		full:        true,
	}

	cells := raster.CellsFor(initialExtent, resolution)
	origin := raster.Vec2f{X: -initialExtent / 2, Y: -initialExtent / 2}
	b.height.Init(origin, cells, cells)
	b.cost.Init(origin, cells, cells)
	b.cloud.Ensure(cells, cells)
	return b
}

// ForceFull makes the next cycle rebuild from all valid chunks regardless of
// the incremental state. Called when a global product gains its first
// subscriber; safe from any goroutine.
func (b *GlobalBuilder) ForceFull() {
	atomic.StoreInt32(&b.forced, 1)
}

// Resizes counts grid growth events, for the cycle stats log.
func (b *GlobalBuilder) Resizes() int {
	return b.resizes
}

// CoveredBounds is the map-frame rectangle currently backed by storage.
func (b *GlobalBuilder) CoveredBounds() raster.Bounds {
	return b.height.CoveredBounds()
}

// Build applies one global update. Caller holds the global regime lock.
//
// Demand is sampled here, after consuming the forced flag, so a subscriber
// that arrived while the caller was waiting on the snapshot has its forced
// full rebuild paired with a sample that already includes its product.
func (b *GlobalBuilder) Build(snap engine.Snapshot, d *Demand, stamp time.Time) (GlobalProducts, error) {
	forced := atomic.SwapInt32(&b.forced, 0) == 1
	c := d.Sample()
	if !c.AnyGlobal() {
		if forced {
			// Demand vanished between the caller's gate and here;
			// re-arm so the next demanded cycle still goes full.
			atomic.StoreInt32(&b.forced, 1)
		}
		return GlobalProducts{}, ErrNoChunks
	}
	full := b.full || forced

	var chunks []engine.Chunk
	if full {
		chunks = snap.AllValidChunks()
	} else {
		chunks = snap.ChunksChangedSince(b.lastRef)
	}
	b.lastRef = snap.ReferenceTime()

	if len(chunks) == 0 {
		// Nothing to apply; a pending full rebuild stays pending.
		b.full = full
		return GlobalProducts{}, ErrNoChunks
	}

	world := raster.WorldBounds(engine.UnionBounds(chunks))
	if !b.height.CoveredBounds().Contains(world) {
		b.resize(b.height.CoveredBounds().Extend(world))
		full = true
		// The buffers were voided; incremental state no longer means
		// anything, so every valid chunk must be re-rasterized.
		chunks = snap.AllValidChunks()
	}
	b.full = false

	b.height.Stamp = stamp
	b.cost.Stamp = stamp
	b.cloud.Stamp = stamp

	needHeight := c.Want(GlobalHeight) || c.Want(GlobalHeightImage)
	needCost := c.Want(GlobalCost) || c.Want(GlobalCostImage)
	needCloud := c.Want(GlobalCloud) || c.Want(GlobalCubes) || c.Want(GlobalColorImage)

	proj := b.height.Projector()
	forEachChunk(chunks, func(chunk engine.Chunk) {
		b.rasterizeChunk(chunk, proj, needHeight, needCost, needCloud)
	})

	out := GlobalProducts{Full: full, Chunks: len(chunks), Counts: c}
	if c.Want(GlobalHeight) || c.Want(GlobalHeightImage) {
		out.Height = b.height
	}
	if c.Want(GlobalCost) || c.Want(GlobalCostImage) {
		out.Cost = b.cost
	}
	if c.Want(GlobalCloud) || c.Want(GlobalColorImage) {
		out.Cloud = b.cloud
	}
	if c.Want(GlobalCubes) {
		b.rebuildCubes(stamp)
		out.Cubes = b.cubes
	}
	return out, nil
}

func (b *GlobalBuilder) resize(union raster.Bounds) {
	width := raster.CellsFor(union.Width(), b.resolution)
	height := raster.CellsFor(union.Height(), b.resolution)
	origin := raster.Vec2f{X: union.MinX, Y: union.MinY}

	b.height.Init(origin, width, height)
	b.cost.Init(origin, width, height)
	b.cloud.Ensure(width, height)
	b.resizes++
}

func (b *GlobalBuilder) rasterizeChunk(chunk engine.Chunk, proj raster.Projector, needHeight, needCost, needCloud bool) {
	half := b.resolution / 2
	count := chunk.CellCount()

	for i := 0; i < count; i++ {
		xn, yn, ok := chunk.CellPosition(i)
		if !ok {
			continue
		}
		idx, ok := proj.Index(xn, yn)
		if !ok {
			continue
		}

		wx := yn + half
		wy := -xn + half

		if !chunk.IsValid(i) {
			// A chunk the engine re-observed can invalidate cells that
			// used to hold data; only touched cells are reset.
			if needHeight {
				b.height.Data[idx] = raster.Unknown
			}
			if needCost {
				b.cost.Data[idx] = raster.Unknown
			}
			if needCloud {
				b.cloud.Clear(idx)
			}
			continue
		}

		if needHeight || needCloud {
			h := chunk.At(engine.Elevation, i)
			if needHeight {
				b.height.Data[idx] = raster.NormalizeHeight(h, b.maxHeight)
			}
			if needCloud {
				b.cloud.Set(idx, raster.Point{X: wx, Y: wy, Z: h, Color: chunk.At(engine.Color, i)})
			}
		}
		if needCost {
			b.cost.Data[idx] = raster.NormalizeCost(chunk.At(engine.Cost, i))
		}
	}
}

// rebuildCubes reconstructs the cube list from the persistent point cloud.
// Stack height comes from a live height read, so the list cannot be patched
// incrementally; it is rebuilt whole every cycle it is demanded.
func (b *GlobalBuilder) rebuildCubes(stamp time.Time) {
	b.cubes.Reset()
	b.cubes.Stamp = stamp
	for i := range b.cloud.Points {
		p := &b.cloud.Points[i]
		if math32.IsNaN(p.Z) {
			continue
		}
		b.cubes.AppendStack(p.X, p.Y, p.Z, p.Color)
	}
}

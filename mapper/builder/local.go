// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"errors"
	"time"

	"github.com/chewxy/math32"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

// ErrNoChunks means the cycle found nothing to rasterize; the caller skips
// publishing and retries next period.
var ErrNoChunks = errors.New("builder: no chunks to rasterize")

// LocalBuilder produces the robot-centered raster set. Everything is
// rebuilt from scratch every cycle; the buffers are owned by the builder
// and protected by the caller's regime lock across build and read.
type LocalBuilder struct {
	resolution  float32
	maxHeight   float32
	zResolution float32
	radius      uint32 // live-reconfigurable, math32 bits

	height *raster.Grid
	cost   *raster.Grid
	cloud  *raster.PointCloud
	cubes  *raster.CubeList
	boxes  *raster.BoxList
}

// LocalProducts carries one cycle's outputs; products without demand are nil.
type LocalProducts struct {
	Height *raster.Grid
	Cost   *raster.Grid
	Cloud  *raster.PointCloud
	Cubes  *raster.CubeList
	Boxes  *raster.BoxList

	Chunks int
}

func NewLocalBuilder(resolution, maxHeight, zResolution, radius float32, period time.Duration) *LocalBuilder {
	b := &LocalBuilder{
		resolution:  resolution,
		maxHeight:   maxHeight,
		zResolution: zResolution,
		height:      raster.NewGrid(resolution),
		cost:        raster.NewGrid(resolution),
		cloud:       &raster.PointCloud{},
		cubes:       raster.NewCubeList(resolution, zResolution),
		boxes:       raster.NewBoxList(period),
	}
	b.SetRadius(radius)
	return b
}

// SetRadius changes the local window radius; safe to call while cycles run.
func (b *LocalBuilder) SetRadius(radius float32) {
	storeFloat32(&b.radius, radius)
}

func (b *LocalBuilder) Radius() float32 {
	return loadFloat32(&b.radius)
}

// Build rasterizes the chunks surrounding the robot at (camX, camY) in the
// map frame. The engine query and the distance cutoff both apply the
// swapped-axis convention.
func (b *LocalBuilder) Build(snap engine.Snapshot, camX, camY float32, c Counts, stamp time.Time) (LocalProducts, error) {
	radius := b.Radius()
	chunks := snap.ChunksNear(-camY, camX, radius)
	if len(chunks) == 0 {
		return LocalProducts{}, ErrNoChunks
	}

	native := engine.UnionBounds(chunks)

	// Clip the chunk union to the robot-centered window, swapping the
	// native axes into the map frame.
	window := raster.Bounds{
		MinX: math32.Max(native.MinY, camX-radius),
		MaxX: math32.Min(native.MaxY, camX+radius),
		MinY: math32.Max(-native.MaxX, camY-radius),
		MaxY: math32.Min(-native.MinX, camY+radius),
	}

	width := raster.CellsFor(math32.Abs(window.Width()), b.resolution)
	height := raster.CellsFor(math32.Abs(window.Height()), b.resolution)
	origin := raster.Vec2f{X: window.MinX, Y: window.MinY}

	// Undemanded products are not touched at all, not even to reset.
	if c.Want(LocalHeight) {
		b.height.Init(origin, width, height)
		b.height.Stamp = stamp
	}
	if c.Want(LocalCost) {
		b.cost.Init(origin, width, height)
		b.cost.Stamp = stamp
	}
	if c.Want(LocalCloud) {
		b.cloud.Ensure(width, height)
		b.cloud.Reset()
		b.cloud.Stamp = stamp
	}
	if c.Want(LocalCubes) {
		b.cubes.Reset()
		b.cubes.Stamp = stamp
	}
	if c.Want(LocalBoxes) {
		b.boxes.Reset()
		b.boxes.Stamp = stamp
	}

	proj := raster.Projector{Origin: origin, Resolution: b.resolution, Width: width, Height: height}
	forEachChunk(chunks, func(chunk engine.Chunk) {
		b.rasterizeChunk(chunk, proj, camX, camY, radius, c)
	})

	out := LocalProducts{Chunks: len(chunks)}
	if c.Want(LocalHeight) {
		out.Height = b.height
	}
	if c.Want(LocalCost) {
		out.Cost = b.cost
	}
	if c.Want(LocalCloud) {
		out.Cloud = b.cloud
	}
	if c.Want(LocalCubes) {
		out.Cubes = b.cubes
	}
	if c.Want(LocalBoxes) {
		out.Boxes = b.boxes
	}
	return out, nil
}

func (b *LocalBuilder) rasterizeChunk(chunk engine.Chunk, proj raster.Projector, camX, camY, radius float32, c Counts) {
	half := b.resolution / 2
	count := chunk.CellCount()

	for i := 0; i < count; i++ {
		if !chunk.IsValid(i) {
			continue // cell keeps its default, Unknown
		}
		xn, yn, ok := chunk.CellPosition(i)
		if !ok {
			continue
		}

		// Euclidean distance from the robot, in the swapped frame.
		if math32.Hypot(-xn-camY, yn-camX) > radius {
			continue
		}

		idx, ok := proj.Index(xn, yn)
		if !ok {
			// Expected at tile boundaries; dropped, never wrapped.
			continue
		}

		if c.Want(LocalCost) {
			b.cost.Data[idx] = raster.NormalizeCost(chunk.At(engine.Cost, i))
		}

		if !c.Want(LocalHeight) && !c.Want(LocalCloud) && !c.Want(LocalCubes) && !c.Want(LocalBoxes) {
			continue
		}
		h := chunk.At(engine.Elevation, i)

		if c.Want(LocalHeight) {
			b.height.Data[idx] = raster.NormalizeHeight(h, b.maxHeight)
		}

		if c.Want(LocalCloud) || c.Want(LocalCubes) || c.Want(LocalBoxes) {
			packed := chunk.At(engine.Color, i)
			wx := yn + half
			wy := -xn + half

			if c.Want(LocalCloud) {
				b.cloud.Set(idx, raster.Point{X: wx, Y: wy, Z: h, Color: packed})
			}
			if c.Want(LocalCubes) {
				b.cubes.AppendStack(wx, wy, h, packed)
			}
			if c.Want(LocalBoxes) {
				b.boxes.AppendCell(idx, wx, wy, h, b.resolution, raster.DepackColor(packed))
			}
		}
	}
}

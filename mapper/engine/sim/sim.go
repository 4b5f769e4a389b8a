// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sim is an in-process terrain engine: perlin elevation fields,
// slope-derived traversability cost, and an asynchronous compute loop that
// matches the request/poll/retrieve contract of the real engine.
package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"

	"terramap/mapper/engine"
	"terramap/mapper/raster"
)

const (
	chunkSide = 16

	frequency      = 0.15
	detailFactor   = 3.0
	holeFrequency  = 0.45
	holeThreshold  = -0.62
	roverFrequency = 0.02
)

var errRetrieve = errors.New("sim: snapshot not ready")

// Engine simulates terrain reconstruction around a slowly drifting rover.
// Each computation expands the explored area and refreshes the chunks near
// the frontier, so incremental consumers always have changed chunks to pick
// up.
type Engine struct {
	mu sync.Mutex

	params  engine.Params
	enabled bool

	elevHi *perlin.Perlin
	elevLo *perlin.Perlin
	costN  *perlin.Perlin
	holes  *perlin.Perlin
	drift  *perlin.Perlin

	chunks   map[chunkKey]*chunk
	coverage float32 // explored radius around the rover, native meters
	rover    raster.Vec2f
	epoch    int

	computing bool
	ready     *snapshot

	// ComputeDelay models reconstruction latency. Zero is fine for tests.
	ComputeDelay time.Duration
}

type chunkKey struct {
	cx, cy int
}

func New(seed int64) *Engine {
	return &Engine{
		elevHi: perlin.NewPerlin(1.5, 2.0, 4, seed),
		elevLo: perlin.NewPerlin(2.5, 3.0, 4, seed+1),
		costN:  perlin.NewPerlin(2.0, 3.0, 3, seed+2),
		holes:  perlin.NewPerlin(2.0, 2.0, 2, seed+3),
		drift:  perlin.NewPerlin(1.8, 2.0, 2, seed+4),
		chunks: make(map[chunkKey]*chunk),
	}
}

func (e *Engine) Enable(params engine.Params) error {
	if params.Resolution <= 0 || params.MaxHeight <= 0 || params.ZResolution <= 0 {
		return errors.New("sim: invalid terrain parameters")
	}

	e.mu.Lock()
	e.params = params
	e.enabled = true
	e.coverage = params.MaxDepth
	e.mu.Unlock()
	return nil
}

func (e *Engine) Request() {
	e.mu.Lock()
	if !e.enabled || e.computing || e.ready != nil {
		// A computation in progress (or an unconsumed result) absorbs
		// the request.
		e.mu.Unlock()
		return
	}
	e.computing = true
	e.mu.Unlock()

	go e.compute()
}

func (e *Engine) Status() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !e.enabled:
		return engine.ErrNotEnabled
	case e.ready != nil:
		return nil
	case e.computing:
		return engine.ErrBusy
	default:
		return engine.ErrNoSnapshot
	}
}

func (e *Engine) Retrieve() (engine.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return nil, engine.ErrNotEnabled
	}
	if e.ready == nil {
		return nil, errRetrieve
	}
	snap := e.ready
	e.ready = nil
	return snap, nil
}

// Pose returns the rover position in the map frame, serving as the sim's
// frame-transform backend.
func (e *Engine) Pose() (x, y float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	world := raster.WorldPoint(e.rover.X, e.rover.Y)
	return world.X, world.Y
}

func (e *Engine) compute() {
	if e.ComputeDelay > 0 {
		time.Sleep(e.ComputeDelay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	t := float64(e.epoch) * roverFrequency
	e.rover = raster.Vec2f{
		X: float32(e.drift.Noise2D(t, 0)) * 4 * e.params.MaxDepth,
		Y: float32(e.drift.Noise2D(0, t)) * 4 * e.params.MaxDepth,
	}

	now := time.Now()
	e.refreshChunks(now)

	chunks := make([]*chunk, 0, len(e.chunks))
	for _, c := range e.chunks {
		chunks = append(chunks, c)
	}
	e.ready = &snapshot{ref: now, chunks: chunks}
	e.computing = false
}

// refreshChunks (re)generates every chunk within coverage of the rover.
// Regenerated chunks are fresh objects so earlier snapshots stay immutable.
func (e *Engine) refreshChunks(now time.Time) {
	span := float32(chunkSide) * e.params.Resolution
	r := e.coverage

	minCX := int(math32.Floor((e.rover.X - r) / span))
	maxCX := int(math32.Floor((e.rover.X + r) / span))
	minCY := int(math32.Floor((e.rover.Y - r) / span))
	maxCY := int(math32.Floor((e.rover.Y + r) / span))

	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			key := chunkKey{cx: cx, cy: cy}
			if old, seen := e.chunks[key]; seen && !e.nearFrontier(old) {
				// Interior chunks are stable; only the frontier band
				// keeps changing between snapshots.
				continue
			}
			e.chunks[key] = e.generateChunk(cx, cy, span, now)
		}
	}
}

func (e *Engine) nearFrontier(c *chunk) bool {
	b := c.Bounds()
	center := raster.Vec2f{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
	return center.Distance(e.rover) > e.coverage-2*float32(chunkSide)*e.params.Resolution
}

func (e *Engine) generateChunk(cx, cy int, span float32, now time.Time) *chunk {
	c := &chunk{
		Dimension: engine.Dimension{
			NativeBounds: raster.BoundsFrom(
				float32(cx)*span, float32(cy)*span,
				float32(cx+1)*span, float32(cy+1)*span,
			),
			Side: chunkSide,
		},
		updated:   now,
		valid:     make([]bool, chunkSide*chunkSide),
		elevation: make([]float32, chunkSide*chunkSide),
		cost:      make([]float32, chunkSide*chunkSide),
		color:     make([]float32, chunkSide*chunkSide),
	}

	for i := range c.valid {
		xn, yn, _ := c.CellPosition(i)

		if (raster.Vec2f{X: xn, Y: yn}).Distance(e.rover) > e.params.MaxDepth {
			continue
		}
		if e.holes.Noise2D(float64(xn)*holeFrequency, float64(yn)*holeFrequency) < holeThreshold {
			continue
		}

		h := e.elevationAt(xn, yn)
		if math32.Abs(h) > e.params.MaxHeight {
			// Above the cutting height; treated as unobserved.
			continue
		}

		c.valid[i] = true
		c.elevation[i] = h
		c.cost[i] = e.costAt(xn, yn, h)
		c.color[i] = raster.PackColor(paletteAt(h, e.params.MaxHeight))
	}

	return c
}

func (e *Engine) elevationAt(xn, yn float32) float32 {
	x, y := float64(xn), float64(yn)
	h := e.elevHi.Noise2D(x*frequency, y*frequency)
	h += e.elevLo.Noise2D(x*frequency/detailFactor, y*frequency/detailFactor) * 2
	return float32(h) * e.params.MaxHeight * 0.45
}

// costAt derives traversability from local slope: the steeper the terrain
// relative to the agent's step, the closer to 1.
func (e *Engine) costAt(xn, yn, h float32) float32 {
	step := e.params.Resolution
	dx := e.elevationAt(xn+step, yn) - h
	dy := e.elevationAt(xn, yn+step) - h
	slope := math32.Hypot(dx, dy) / step

	limit := e.params.AgentSlope
	if limit <= 0 {
		limit = 1
	}
	cost := slope / limit
	if roughness := e.costN.Noise2D(float64(xn)*frequency, float64(yn)*frequency); roughness > 0 {
		cost += float32(roughness) * e.params.AgentRoughness
	}
	if cost > 1 {
		cost = 1
	}
	if cost < 0 {
		cost = 0
	}
	return cost
}

var palette = [...]raster.ColorVec{
	raster.RGB(0, 75, 130),
	raster.RGB(194, 178, 128),
	raster.RGB(90, 180, 30),
	raster.RGB(105, 110, 115),
	raster.Gray(220),
}

func paletteAt(h, maxHeight float32) raster.ColorVec {
	f := (h/maxHeight + 1) / 2 // [-max, max] -> [0, 1]
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	scaled := f * float32(len(palette)-1)
	i := int(scaled)
	if i >= len(palette)-1 {
		return palette[len(palette)-1]
	}
	return palette[i].Lerp(palette[i+1], scaled-float32(i))
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine defines the narrow contract the rasterization core needs
// from the terrain-reconstruction engine. The real engine is an external
// dependency injected behind these interfaces; engine/sim provides an
// in-process implementation.
package engine

import (
	"errors"
	"time"

	"terramap/mapper/raster"
)

var (
	// ErrBusy is the Status result while a computation is in flight.
	ErrBusy = errors.New("engine: computation in progress")
	// ErrNoSnapshot is the Status result before the first computation.
	ErrNoSnapshot = errors.New("engine: no snapshot computed")
	// ErrNotEnabled is returned by Request/Retrieve before Enable succeeds.
	ErrNotEnabled = errors.New("engine: terrain mapping not enabled")
)

// Params configures terrain reconstruction when the engine is enabled.
type Params struct {
	AgentStep      float32
	AgentSlope     float32
	AgentRadius    float32
	AgentHeight    float32
	AgentRoughness float32

	MaxDepth    float32 // sensing range, meters
	MaxHeight   float32 // cutting height, meters
	ZResolution float32 // vertical resolution, meters
	Resolution  float32 // grid cell resolution, meters
}

// Resolutions is the engine's grid-resolution table; config selects by index.
var Resolutions = [...]float32{0.025, 0.05, 0.1, 0.25, 0.5}

// ResolutionOf maps a configured selector index to meters per cell.
func ResolutionOf(idx int) float32 {
	if idx < 0 || idx >= len(Resolutions) {
		return Resolutions[len(Resolutions)/2]
	}
	return Resolutions[idx]
}

// Engine computes terrain asynchronously: Request starts a computation
// (ignored while one is running), Status reports nil once a snapshot is
// ready, Retrieve consumes it. All methods are safe for concurrent use;
// callers serialize the status/retrieve/re-request window through a
// SyncGate.
type Engine interface {
	// Enable configures and starts terrain reconstruction. It may be
	// retried after failure.
	Enable(params Params) error
	// Request asks for the next computation without blocking. Idempotent
	// while a computation is already running.
	Request()
	// Status returns nil when a snapshot is ready for Retrieve.
	Status() error
	// Retrieve consumes the ready snapshot. Valid only when Status is nil,
	// and may still fail.
	Retrieve() (Snapshot, error)
}

// Snapshot is the set of chunks valid as of a reference timestamp. It is
// immutable; the core holds it only for the duration of one builder pass.
type Snapshot interface {
	ReferenceTime() time.Time
	// ChunksNear returns the valid chunks within radius of an origin given
	// in the engine's native frame.
	ChunksNear(xn, yn, radius float32) []Chunk
	// ChunksChangedSince returns the chunks updated after t.
	ChunksChangedSince(t time.Time) []Chunk
	AllValidChunks() []Chunk
}

// Layer names a per-cell scalar.
type Layer uint8

const (
	Elevation Layer = iota
	Cost
	Color // packed RGB float, see raster.PackColor
)

// Chunk is a read-only handle on one terrain tile. Cell indices are
// row-major over the chunk's own grid.
type Chunk interface {
	// Bounds is the chunk's rectangle in native coordinates.
	Bounds() raster.Bounds
	CellCount() int
	IsValid(i int) bool
	At(layer Layer, i int) float32
	// CellPosition returns the native coordinate of cell i, ok=false when
	// i is out of range.
	CellPosition(i int) (xn, yn float32, ok bool)
}

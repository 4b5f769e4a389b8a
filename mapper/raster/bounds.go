// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import "github.com/chewxy/math32"

// Bounds is an axis-aligned rectangle, in whichever horizontal frame the
// holder declares (engine-native or map). Empty until extended.
type Bounds struct {
	MinX float32 `json:"minX"`
	MinY float32 `json:"minY"`
	MaxX float32 `json:"maxX"`
	MaxY float32 `json:"maxY"`
}

func BoundsFrom(minX, minY, maxX, maxY float32) Bounds {
	return Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// EmptyBounds is the identity for Extend.
func EmptyBounds() Bounds {
	return Bounds{
		MinX: math32.MaxFloat32,
		MinY: math32.MaxFloat32,
		MaxX: -math32.MaxFloat32,
		MaxY: -math32.MaxFloat32,
	}
}

func (b Bounds) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b Bounds) Width() float32 {
	return b.MaxX - b.MinX
}

func (b Bounds) Height() float32 {
	return b.MaxY - b.MinY
}

func (b Bounds) Extend(other Bounds) Bounds {
	if other.MinX < b.MinX {
		b.MinX = other.MinX
	}
	if other.MinY < b.MinY {
		b.MinY = other.MinY
	}
	if other.MaxX > b.MaxX {
		b.MaxX = other.MaxX
	}
	if other.MaxY > b.MaxY {
		b.MaxY = other.MaxY
	}
	return b
}

// Contains reports whether b fully contains other.
func (b Bounds) Contains(other Bounds) bool {
	return b.MinX <= other.MinX && b.MinY <= other.MinY &&
		b.MaxX >= other.MaxX && b.MaxY >= other.MaxY
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package raster

import (
	"image/color"
	"math"
)

// ColorVec is an RGB color with components in [0, 1].
type ColorVec [3]float32

func RGB(r, g, b byte) ColorVec {
	const factor = 1.0 / 255
	return ColorVec{float32(r) * factor, float32(g) * factor, float32(b) * factor}
}

func Gray(v byte) ColorVec {
	return RGB(v, v, v)
}

func (vec ColorVec) Lerp(other ColorVec, factor float32) ColorVec {
	for i := range vec {
		vec[i] = Lerp(vec[i], other[i], factor)
	}
	return vec
}

func (vec ColorVec) Color() color.RGBA {
	return color.RGBA{R: floatToByte(vec[0]), G: floatToByte(vec[1]), B: floatToByte(vec[2]), A: 255}
}

// PackColor stores an RGB triple in the bit pattern of a float32, the
// encoding the terrain engine uses for its color layer and the cloud
// products carry on the wire.
func PackColor(vec ColorVec) float32 {
	bits := uint32(floatToByte(vec[0]))<<16 | uint32(floatToByte(vec[1]))<<8 | uint32(floatToByte(vec[2]))
	return math.Float32frombits(bits)
}

// DepackColor is the inverse of PackColor.
func DepackColor(packed float32) ColorVec {
	bits := math.Float32bits(packed)
	return RGB(byte(bits>>16), byte(bits>>8), byte(bits))
}

func floatToByte(f float32) byte {
	if f < 0 {
		return 0
	}
	if f > 1.0 {
		return 255
	}
	return byte(f * 255)
}

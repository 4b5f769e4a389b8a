// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transform abstracts the pose source that tells the pipeline where
// the robot camera sits in the map frame. Lookups can fail transiently
// (tracking loss); callers warn and skip the cycle.
package transform

import "errors"

// ErrUnavailable means the transform cannot be resolved right now. The
// condition is usually transient.
var ErrUnavailable = errors.New("transform: unavailable")

// Pose is a 2D position in the map frame. Orientation is not needed; the
// rasters are axis-aligned.
type Pose struct {
	X float32
	Y float32
}

// Source resolves the camera pose in the map frame.
type Source interface {
	CameraPose() (Pose, error)
}

// SourceFunc adapts a lookup function to a Source.
type SourceFunc func() (Pose, error)

func (f SourceFunc) CameraPose() (Pose, error) {
	return f()
}

// Static always reports a fixed pose, for tests and bench rigs.
type Static Pose

func (s Static) CameraPose() (Pose, error) {
	return Pose(s), nil
}

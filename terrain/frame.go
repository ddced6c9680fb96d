// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "github.com/jpmartin42/chrono-gpu-scm/geomutil"

// Frame is the user-supplied rigid frame deformation occurs along. It is the one coordinate transform every other component composes
// through: world <-> SCM-local.
type Frame struct {
	Origin               geomutil.Vec3
	AxisX, AxisY, AxisZ geomutil.Vec3 // orthonormal, expressed in world coordinates
}

// DefaultFrame is the identity frame (SCM frame == world frame).
func DefaultFrame() Frame {
	return Frame{
		Origin: geomutil.Vec3{},
		AxisX:  geomutil.Vec3{X: 1},
		AxisY:  geomutil.Vec3{Y: 1},
		AxisZ:  geomutil.Vec3{Z: 1},
	}
}

// ToLocal projects a world point into SCM-local coordinates.
func (f Frame) ToLocal(p geomutil.Vec3) geomutil.Vec3 {
	d := p.Sub(f.Origin)
	return geomutil.Vec3{X: d.Dot(f.AxisX), Y: d.Dot(f.AxisY), Z: d.Dot(f.AxisZ)}
}

// ToWorld maps an SCM-local point to world coordinates.
func (f Frame) ToWorld(p geomutil.Vec3) geomutil.Vec3 {
	return f.Origin.Add(f.AxisX.Scale(p.X)).Add(f.AxisY.Scale(p.Y)).Add(f.AxisZ.Scale(p.Z))
}

// DirToWorld rotates an SCM-local direction into world coordinates (no
// translation).
func (f Frame) DirToWorld(d geomutil.Vec3) geomutil.Vec3 {
	return f.AxisX.Scale(d.X).Add(f.AxisY.Scale(d.Y)).Add(f.AxisZ.Scale(d.Z))
}

// DirToLocal rotates a world direction into SCM-local coordinates.
func (f Frame) DirToLocal(d geomutil.Vec3) geomutil.Vec3 {
	return geomutil.Vec3{X: d.Dot(f.AxisX), Y: d.Dot(f.AxisY), Z: d.Dot(f.AxisZ)}
}

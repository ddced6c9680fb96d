// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geomutil

import "math"

// AABB is an axis-aligned bounding box in some frame.
type AABB struct {
	Min, Max Vec3
}

// Inverted reports whether the box is degenerate (min > max on some axis).
// An inverted boundary AABB is silently ignored by the caller rather than
// rejected here.
func (b AABB) Inverted() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// OBB is an oriented box: a center, half-extents along its own local axes,
// and the local axes expressed in the parent frame.
type OBB struct {
	Center  Vec3
	HalfDim Vec3
	AxisX   Vec3
	AxisY   Vec3
	AxisZ   Vec3
}

// Corners returns the 8 corners of the box in the parent frame.
func (o OBB) Corners() [8]Vec3 {
	var c [8]Vec3
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				offset := o.AxisX.Scale(sx * o.HalfDim.X).
					Add(o.AxisY.Scale(sy * o.HalfDim.Y)).
					Add(o.AxisZ.Scale(sz * o.HalfDim.Z))
				c[i] = o.Center.Add(offset)
				i++
			}
		}
	}
	return c
}

// ToLocal projects a point from the parent frame into the box's own local
// coordinates (centered on the box, aligned with its axes).
func (o OBB) ToLocal(p Vec3) Vec3 {
	d := p.Sub(o.Center)
	return Vec3{d.Dot(o.AxisX), d.Dot(o.AxisY), d.Dot(o.AxisZ)}
}

// RaySlabHitsOBB implements the Kay-Kajiya slab test: a ray (origin, raw
// world-space direction) hits the box iff the per-axis [tmin,tmax]
// intervals all overlap on [0,+inf). The direction is rotated into the
// box's local frame before it is inverted: elementwise reciprocal does
// not commute with rotation, so inverting first and rotating the result
// would give the wrong per-axis t values for any box not axis-aligned
// with the parent frame.
func RaySlabHitsOBB(origin, dir Vec3, box OBB) bool {
	local := box.ToLocal(origin)
	localDir := Vec3{dir.Dot(box.AxisX), dir.Dot(box.AxisY), dir.Dot(box.AxisZ)}
	localInvDir := localDir.Inv(1e-12, 1e15)
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		var o, d, h float64
		switch axis {
		case 0:
			o, d, h = local.X, localInvDir.X, box.HalfDim.X
		case 1:
			o, d, h = local.Y, localInvDir.Y, box.HalfDim.Y
		default:
			o, d, h = local.Z, localInvDir.Z, box.HalfDim.Z
		}
		t1 := (-h - o) * d
		t2 := (h - o) * d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return tmax >= 0
}

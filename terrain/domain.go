// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"math"

	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// ActiveDomain restricts which cells are ray-tested each step to those
// under a moving body's oriented box.
type ActiveDomain struct {
	Body      collision.RigidBody // nil for the default domain
	IsDefault bool
	center    geomutil.Vec3 // box center, in body-local coordinates (or world, for the default domain)
	halfDim   geomutil.Vec3

	CachedCells []CellIndex // cell range covered this step
	obbWorld    geomutil.OBB
}

// NewActiveDomain creates a user domain attached to body, with an oriented
// box of the given center and half-dimensions expressed in the body frame.
func NewActiveDomain(body collision.RigidBody, center, halfDim geomutil.Vec3) *ActiveDomain {
	return &ActiveDomain{Body: body, center: center, halfDim: halfDim}
}

// NewDefaultActiveDomain builds the implicit domain used when the embedder
// registers no explicit one: it tracks the collision world's AABB.
func NewDefaultActiveDomain() *ActiveDomain {
	return &ActiveDomain{IsDefault: true}
}

// Resolve recomputes CachedCells for this step: project the box's 8 corners
// into the SCM frame, take the (x,y) bounding rectangle, and snap it to the
// integer cell range.
func (d *ActiveDomain) Resolve(frame Frame, world collision.World, spacing float64, nx, ny int) {
	var minX, minY, maxX, maxY float64
	if d.IsDefault {
		box := world.BoundingBox()
		lo := frame.ToLocal(box.Min)
		hi := frame.ToLocal(box.Max)
		minX, maxX = math.Min(lo.X, hi.X), math.Max(lo.X, hi.X)
		minY, maxY = math.Min(lo.Y, hi.Y), math.Max(lo.Y, hi.Y)
	} else {
		axisX := d.Body.FrameRefToAbs(geomutil.Vec3{X: 1}).Sub(d.Body.GetPos())
		axisY := d.Body.FrameRefToAbs(geomutil.Vec3{Y: 1}).Sub(d.Body.GetPos())
		axisZ := d.Body.FrameRefToAbs(geomutil.Vec3{Z: 1}).Sub(d.Body.GetPos())
		worldCenter := d.Body.FrameRefToAbs(d.center)
		d.obbWorld = geomutil.OBB{Center: worldCenter, HalfDim: d.halfDim, AxisX: axisX, AxisY: axisY, AxisZ: axisZ}
		minX, minY = math.Inf(1), math.Inf(1)
		maxX, maxY = math.Inf(-1), math.Inf(-1)
		for _, c := range d.obbWorld.Corners() {
			local := frame.ToLocal(c)
			if local.X < minX {
				minX = local.X
			}
			if local.X > maxX {
				maxX = local.X
			}
			if local.Y < minY {
				minY = local.Y
			}
			if local.Y > maxY {
				maxY = local.Y
			}
		}
	}

	i0 := clampInt(int(math.Floor(minX/spacing)), -nx, nx)
	i1 := clampInt(int(math.Ceil(maxX/spacing)), -nx, nx)
	j0 := clampInt(int(math.Floor(minY/spacing)), -ny, ny)
	j1 := clampInt(int(math.Ceil(maxY/spacing)), -ny, ny)

	d.CachedCells = d.CachedCells[:0]
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			d.CachedCells = append(d.CachedCells, CellIndex{I: i, J: j})
		}
	}
}

// RejectsRay fast-rejects a ray (in world coordinates) against this
// domain's oriented box using the Kay-Kajiya slab test. Always false for the default domain, which performs no fast
// rejection.
func (d *ActiveDomain) RejectsRay(from, to geomutil.Vec3) bool {
	if d.IsDefault {
		return false
	}
	dir := to.Sub(from)
	return !geomutil.RaySlabHitsOBB(from, dir, d.obbWorld)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

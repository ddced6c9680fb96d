// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// fakeBody is a minimal collision.RigidBody double: static (identity
// orientation, fixed position, zero contact-point velocity) and records the
// last load applied to it.
type fakeBody struct {
	id       string
	pos      geomutil.Vec3
	data     collision.SCMContactableData
	hasData  bool
	velocity geomutil.Vec3

	lastForce, lastTorque geomutil.Vec3
	loadCalls             int
}

func (b *fakeBody) Kind() collision.ContactableKind { return collision.KindRigidBody }
func (b *fakeBody) Identity() string                { return b.id }
func (b *fakeBody) ContactableData() (collision.SCMContactableData, bool) {
	return b.data, b.hasData
}
func (b *fakeBody) FrameRefToAbs(local geomutil.Vec3) geomutil.Vec3 { return b.pos.Add(local) }
func (b *fakeBody) TransformDirectionParentToLocal(worldDir geomutil.Vec3) geomutil.Vec3 {
	return worldDir
}
func (b *fakeBody) GetContactPointSpeed(worldPoint geomutil.Vec3) geomutil.Vec3 { return b.velocity }
func (b *fakeBody) GetPos() geomutil.Vec3                                      { return b.pos }
func (b *fakeBody) ApplyLoad(force, torque geomutil.Vec3) {
	b.lastForce = force
	b.lastTorque = torque
	b.loadCalls++
}

// planeWorld is a collision.World double: a flat horizontal surface at
// surfaceZ (world coordinates), present only where footprint reports true
// for a ray's (x,y) origin. Any vertical ray whose [from.Z,to.Z] interval
// straddles surfaceZ within the footprint registers a hit against body.
type planeWorld struct {
	surfaceZ  float64
	footprint func(x, y float64) bool
	body      collision.RigidBody
	box       geomutil.AABB

	rayHitCalls int
}

func (w *planeWorld) RayHit(from, to geomutil.Vec3) collision.RayHitResult {
	w.rayHitCalls++
	if w.footprint != nil && !w.footprint(from.X, from.Y) {
		return collision.RayHitResult{}
	}
	lo, hi := to.Z, from.Z
	if lo > hi {
		lo, hi = hi, lo
	}
	if w.surfaceZ < lo || w.surfaceZ > hi {
		return collision.RayHitResult{}
	}
	return collision.RayHitResult{
		Hit:        true,
		Model:      w.body,
		WorldPoint: geomutil.Vec3{X: from.X, Y: from.Y, Z: w.surfaceZ},
	}
}

func (w *planeWorld) BoundingBox() geomutil.AABB { return w.box }

func defaultSoil() SoilParams {
	return SoilParams{
		Kphi: 2e6,
		Kc:   0,
		N:    1.1,
		C:    0,
		PhiDeg: 30,
		J:    0.02,
		K:    5e7,
		R:    0,
	}
}

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"github.com/cpmech/gosl/la"

	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// minSubmittableForce is the magnitude below which an accumulated body force
// is treated as numerical noise and withheld from the embedder.
const minSubmittableForce = 1e-12

// bodyAccum accumulates force and moment-about-COM for one rigid body
// across all cells it contacted this step.
type bodyAccum struct {
	body   collision.RigidBody
	force  geomutil.Vec3
	torque geomutil.Vec3
}

// nodeAccum accumulates a weighted force for one FEA triangle node.
type nodeAccum struct {
	node  collision.FEATriangleNode
	force geomutil.Vec3
}

// ForceDistributor accumulates per-step contact forces keyed by
// contactable and, at step end, either submits them as loads (normal mode)
// or holds them for the embedder's cosim queries.
type ForceDistributor struct {
	bodies  map[string]*bodyAccum
	nodes   []*nodeAccum
	surface map[string]geomutil.Vec3
}

func newForceDistributor() *ForceDistributor {
	return &ForceDistributor{
		bodies:  make(map[string]*bodyAccum),
		surface: make(map[string]geomutil.Vec3),
	}
}

// Accumulate dispatches one cell's force onto its contactable, per the
// tagged-variant distribution rule.
func (d *ForceDistributor) Accumulate(cf cellForce) {
	switch cf.contactable.Kind() {
	case collision.KindRigidBody:
		body := cf.contactable.(collision.RigidBody)
		acc, ok := d.bodies[body.Identity()]
		if !ok {
			acc = &bodyAccum{body: body}
			d.bodies[body.Identity()] = acc
		}
		acc.force = acc.force.Add(cf.force)
		r := cf.worldPoint.Sub(body.GetPos())
		acc.torque = acc.torque.Add(r.Cross(cf.force))

	case collision.KindFEATriangle:
		tri := cf.contactable.(collision.FEATriangle)
		u, v, w, ok := tri.ComputeUVfromP(cf.worldPoint)
		if !ok {
			return // degenerate triangle: drop this cell's force
		}
		nodes := tri.Nodes()
		weights := [3]float64{u, v, w}
		for i, n := range nodes {
			d.nodes = append(d.nodes, &nodeAccum{node: n, force: cf.force.Scale(weights[i])})
		}

	case collision.KindLoadSurface:
		d.surface[cf.contactable.Identity()] = d.surface[cf.contactable.Identity()].Add(cf.force)
	}
}

// Submit applies all accumulated loads to their contactables. Not called in
// cosimulation mode.
func (d *ForceDistributor) Submit(surfaces map[string]collision.LoadSurface) {
	for _, acc := range d.bodies {
		if la.VecNorm([]float64{acc.force.X, acc.force.Y, acc.force.Z}) < minSubmittableForce {
			continue
		}
		acc.body.ApplyLoad(acc.force, acc.torque)
	}
	for _, na := range d.nodes {
		na.node.ApplyForce(na.force)
	}
	for id, f := range d.surface {
		if s, ok := surfaces[id]; ok {
			s.ApplyForce(f)
		}
	}
}

// ForceOnBody returns the accumulated force and torque on the body with the
// given identity this step, for cosim
// queries or post-submit introspection.
func (d *ForceDistributor) ForceOnBody(identity string) (force, torque geomutil.Vec3) {
	if acc, ok := d.bodies[identity]; ok {
		return acc.force, acc.torque
	}
	return geomutil.Vec3{}, geomutil.Vec3{}
}

// ForceOnNode sums the accumulated force on a specific FEA node this step.
func (d *ForceDistributor) ForceOnNode(node collision.FEATriangleNode) geomutil.Vec3 {
	var sum geomutil.Vec3
	for _, na := range d.nodes {
		if na.node == node {
			sum = sum.Add(na.force)
		}
	}
	return sum
}

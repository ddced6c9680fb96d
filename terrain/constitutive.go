// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"math"

	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// cellForce is the world-frame normal/shear force computed for one cell,
// queued for distribution to its contactable.
type cellForce struct {
	idx         CellIndex
	contactable collision.Contactable
	worldPoint  geomutil.Vec3
	force       geomutil.Vec3
}

// updateConstitutive runs the elastic-trial / plastic-return / damping /
// Janosi-Hanamoto update for every hit cell of every patch, in patch order
// and cell-within-patch order (both deterministic, inherited from
// segmentPatches). The shape of this function — mutate a persistent
// per-cell state struct in place, report nothing but the force it produced,
// let the caller accumulate — mirrors gofem's mdl/solid.Small.Update
// contract (`Update(state, Δstrain) error`), even though the constitutive
// law itself (Bekker, not Drucker-Prager/von Mises) is unrelated.
func (o *SCM) updateConstitutive(patches []*ContactPatch, hits map[CellIndex]collision.RayHitResult, dt float64) []cellForce {
	var forces []cellForce
	spacing := o.store.Spacing()
	cellArea := spacing * spacing

	for _, patch := range patches {
		for _, idx := range patch.Cells {
			res := hits[idx]
			node := mustGet(o.store, idx)
			node.StepPlasticFlow = 0

			loc := geomutil.Vec3{X: float64(idx.I) * spacing, Y: float64(idx.J) * spacing, Z: node.LevelInitial}
			params := o.soil
			if o.soilCB != nil {
				if override, ok := o.soilCB(loc); ok {
					params = override
				}
			}

			node.HitLevel = o.frame.ToLocal(res.WorldPoint).Z
			ca := node.Normal.Z
			s := ca * (node.LevelInitial - node.HitLevel)

			sigma := params.K * (s - node.SinkagePlastic)
			if sigma < 0 {
				node.Sigma = 0
				continue // negative trial pressure: no traction, not modified, not retained for force
			}

			o.store.MarkModified(idx)
			node.Sinkage = s
			node.Level = node.HitLevel

			v := velocityAt(res.Model, res.WorldPoint)
			normalWorld := o.frame.DirToWorld(node.Normal)
			vn := v.Dot(normalWorld)
			vt := v.Sub(normalWorld.Scale(vn))
			hatT := vt.Normalize().Scale(-1)
			node.KShear += v.Dot(hatT.Scale(-1)) * dt

			if sigma > node.SigmaYield {
				var b float64
				if patch.Oob > 0 {
					b = patch.Oob
				}
				sigmaBekker := (b*params.Kc + params.Kphi) * math.Pow(s, params.N)
				oldSinkagePlastic := node.SinkagePlastic
				sigma = sigmaBekker
				node.SigmaYield = sigmaBekker
				node.SinkagePlastic = s - sigma/params.K
				node.StepPlasticFlow = (node.SinkagePlastic - oldSinkagePlastic) / dt
			}
			node.SinkageElastic = s - node.SinkagePlastic

			sigma += -vn * params.R
			if sigma < 0 {
				// sigma >= 0 always; damping must not make contact tensile.
				sigma = 0
			}
			node.Sigma = sigma

			tauMax := params.C + sigma*params.Mu()
			tau := tauMax * (1 - math.Exp(-node.KShear/params.J))
			if provider, ok := res.Model.(collision.SCMDataProvider); ok {
				if data, has := provider.ContactableData(); has {
					tauObj := (data.Cohesion + sigma*data.Friction) * (1 - math.Exp(-node.KShear/data.Janosi))
					tau = (1-data.AreaRatio)*tau + data.AreaRatio*tauObj
				}
			}
			node.Tau = tau

			fn := normalWorld.Scale(cellArea * sigma)
			ft := hatT.Scale(cellArea * tau)
			forces = append(forces, cellForce{idx: idx, contactable: res.Model, worldPoint: res.WorldPoint, force: fn.Add(ft)})

			node.Level = node.LevelInitial - node.Sinkage/safeCa(ca)
		}
	}
	return forces
}

func safeCa(ca float64) float64 {
	if math.Abs(ca) < 1e-9 {
		return 1e-9
	}
	return ca
}

func mustGet(store *NodeStore, idx CellIndex) *Node {
	n, ok := store.Get(idx)
	if !ok {
		// the ray-cast merge step (mergeHits) always creates a node for
		// every hit cell before segmentation/constitutive update runs.
		panic("terrain: constitutive update reached a hit cell with no node record")
	}
	return n
}

// velocityAt returns the contactable's velocity at worldPoint. Only rigid
// bodies expose a contact-point velocity query; FEA triangles and generic
// load surfaces are treated as quasi-static relative to the soil within one
// step.
func velocityAt(c collision.Contactable, worldPoint geomutil.Vec3) geomutil.Vec3 {
	if body, ok := c.(collision.RigidBody); ok {
		return body.GetContactPointSpeed(worldPoint)
	}
	return geomutil.Vec3{}
}

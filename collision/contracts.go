// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package collision defines the contracts the SCM terrain core requires
// from its embedder: a collision world exposing concurrent-callable ray
// queries, and the three "contactable" surface kinds force can be applied
// to (rigid bodies, FEA triangles, generic parametric surfaces).
//
// These are contracts only — no implementation. The multibody
// time-integrator, the collision-detection backend, and FEA mesh storage
// are out of scope; this package exists so terrain can depend
// on small capability interfaces instead of a concrete physics engine, in
// the style of gofem's ele.Element capability interfaces
// (CanExtrapolate, CanOutputIps) rather than one fat interface or an
// inheritance chain.
package collision

import "github.com/jpmartin42/chrono-gpu-scm/geomutil"

// RayHitResult is the result of a single ray query.
type RayHitResult struct {
	Hit        bool
	Model      Contactable
	WorldPoint geomutil.Vec3
}

// World is the external collision-detection service. RayHit must be safe
// to call concurrently from multiple goroutines.
type World interface {
	RayHit(from, to geomutil.Vec3) RayHitResult
	BoundingBox() geomutil.AABB
}

// Contactable is the tagged variant over the three kinds of surface the
// core can push forces into. Kind reports which
// of the three capability interfaces below may be type-asserted out of it.
type Contactable interface {
	Kind() ContactableKind
	Identity() string // stable key for per-step force accumulation and cosim queries
}

// ContactableKind discriminates the Contactable variant.
type ContactableKind int

const (
	KindRigidBody ContactableKind = iota
	KindFEATriangle
	KindLoadSurface
)

// SCMDataProvider is implemented by any Contactable that carries a
// per-object soil-parameter override. RigidBody is the only kind that implements it
// today, but the constitutive update type-asserts against this interface
// rather than against RigidBody directly so a FEATriangle or LoadSurface
// implementation can opt in later without changing the constitutive update.
type SCMDataProvider interface {
	ContactableData() (data SCMContactableData, ok bool)
}

// RigidBody is a Contactable backed by a body in the multibody system.
type RigidBody interface {
	Contactable
	SCMDataProvider
	FrameRefToAbs(local geomutil.Vec3) geomutil.Vec3
	TransformDirectionParentToLocal(worldDir geomutil.Vec3) geomutil.Vec3
	GetContactPointSpeed(worldPoint geomutil.Vec3) geomutil.Vec3
	GetPos() geomutil.Vec3
	// ApplyLoad submits an accumulated force/torque as a load on the body.
	ApplyLoad(force, torqueAboutCOM geomutil.Vec3)
}

// FEATriangleNode is a single node of a FEA triangle contactable.
type FEATriangleNode interface {
	Position() geomutil.Vec3
	ApplyForce(force geomutil.Vec3)
}

// FEATriangle is a Contactable backed by a finite-element triangle; forces
// are distributed to its three nodes by barycentric weight.
type FEATriangle interface {
	Contactable
	Nodes() [3]FEATriangleNode
	// ComputeUVfromP returns the barycentric coordinates of world point p
	// on this triangle.
	ComputeUVfromP(p geomutil.Vec3) (u, v, w float64, ok bool)
}

// LoadSurface is a generic parametric-surface Contactable. Force is attached at a
// fixed parametric location rather than distributed.
//
// TODO: once the embedder exposes a real parametric-surface loader this
// should carry the (u,v) location the force was attached at instead of
// applying it at a single fixed anchor.
type LoadSurface interface {
	Contactable
	ApplyForce(force geomutil.Vec3)
}

// SCMContactableData is a per-object override of the global soil shear
// parameters, blended into the traction with weight AreaRatio:
// tau_used = (1-AreaRatio)*tau + AreaRatio*tau_obj.
type SCMContactableData struct {
	Cohesion  float64 // c, overrides the global Mohr-Coulomb cohesion
	Friction  float64 // μ, overrides the global Mohr-Coulomb friction coefficient
	Janosi    float64 // J, overrides the global Janosi-Hanamoto shear modulus
	AreaRatio float64 // α ∈ [0,1], blend weight toward this object's traction
}

// Color is a simple RGBA color in [0,1], used by the colormap contract.
type Color struct{ R, G, B, A float64 }

// Colormap maps a scalar field value to a display color.
type Colormap interface {
	Get(value, vmin, vmax float64) Color
}

// VisMesh is the embedder's persistent triangle mesh.
// Vertices are addressed by the same integer vertex index scheme the
// embedder used to build the mesh; the core only ever updates vertices it
// is told map to a cell, and hands back the list of touched indices so the
// renderer can avoid a full-mesh upload.
type VisMesh interface {
	VertexIndex(cell CellKey) (idx int, ok bool)
	SetVertex(idx int, position, normal geomutil.Vec3, color Color)
	Wireframe() bool
	Flush(modified []int)
}

// CellKey mirrors terrain.CellIndex without importing the terrain package,
// avoiding an import cycle between collision and terrain.
type CellKey struct{ I, J int }


// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package geomutil implements small 3D vector, oriented-box and
// barycentric-interpolation helpers shared by the terrain and collision
// packages. No computational-geometry library appears anywhere in the
// reference corpus (gosl/la targets generic FEM vectors and matrices, not
// slab tests or barycentric coordinates, and gosl/gm is mesh/NURBS-
// oriented), so most of this package is hand-rolled; see DESIGN.md for the
// justification. Cross, the one operation the corpus does provide
// (gosl/utl.Cross3d), delegates to it instead of reimplementing it.
package geomutil

import (
	"math"

	"github.com/cpmech/gosl/utl"
)

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns o+p.
func (o Vec3) Add(p Vec3) Vec3 { return Vec3{o.X + p.X, o.Y + p.Y, o.Z + p.Z} }

// Sub returns o-p.
func (o Vec3) Sub(p Vec3) Vec3 { return Vec3{o.X - p.X, o.Y - p.Y, o.Z - p.Z} }

// Scale returns o*s.
func (o Vec3) Scale(s float64) Vec3 { return Vec3{o.X * s, o.Y * s, o.Z * s} }

// Dot returns the dot product o·p.
func (o Vec3) Dot(p Vec3) float64 { return o.X*p.X + o.Y*p.Y + o.Z*p.Z }

// Cross returns the cross product o×p, via gosl/utl.Cross3d (the same
// call gofem's beam.go uses to build a local triad from two edge vectors).
func (o Vec3) Cross(p Vec3) Vec3 {
	c := make([]float64, 3)
	utl.Cross3d(c, []float64{o.X, o.Y, o.Z}, []float64{p.X, p.Y, p.Z})
	return Vec3{c[0], c[1], c[2]}
}

// Norm returns the Euclidean length of o.
func (o Vec3) Norm() float64 { return math.Sqrt(o.Dot(o)) }

// Normalize returns o scaled to unit length. Returns the zero vector if o is
// (numerically) the zero vector, rather than dividing by zero.
func (o Vec3) Normalize() Vec3 {
	n := o.Norm()
	if n < 1e-15 {
		return Vec3{}
	}
	return o.Scale(1.0 / n)
}

// Inv returns the componentwise reciprocal of o, clamping any component
// whose magnitude is below eps to a large sentinel of the same sign: the
// ray-vs-OBB slab test divides by ray-direction components and must not
// divide by zero.
func (o Vec3) Inv(eps, sentinel float64) Vec3 {
	return Vec3{invComponent(o.X, eps, sentinel), invComponent(o.Y, eps, sentinel), invComponent(o.Z, eps, sentinel)}
}

func invComponent(v, eps, sentinel float64) float64 {
	if math.Abs(v) < eps {
		if v < 0 {
			return -sentinel
		}
		return sentinel
	}
	return 1.0 / v
}

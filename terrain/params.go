// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"math"

	"github.com/cpmech/gosl/fun/dbf"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// SoilParams holds the global Bekker/Janosi-Hanamoto/elastic-plastic
// defaults. A per-cell RegisterSoilParametersCallback
// shadows these for an individual cell during the constitutive update.
type SoilParams struct {
	Kphi    float64 // Bekker frictional pressure-sinkage modulus
	Kc      float64 // Bekker cohesive pressure-sinkage modulus
	N       float64 // Bekker pressure-sinkage exponent
	C       float64 // Mohr-Coulomb cohesion
	PhiDeg  float64 // Mohr-Coulomb friction angle, degrees (μ = tan(φ))
	J       float64 // Janosi-Hanamoto shear modulus
	K       float64 // elastic pressure-sinkage stiffness
	R       float64 // normal damping coefficient
}

// Mu returns the Mohr-Coulomb friction coefficient tan(φ).
func (p SoilParams) Mu() float64 { return math.Tan(p.PhiDeg * math.Pi / 180) }

// Prms returns the parameters as a dbf.Params record, in the style of
// gofem's mdl/solid.Model.GetPrms, for introspection/logging without
// exposing the SoilParams struct layout directly.
func (p SoilParams) Prms() dbf.Params {
	return dbf.Params{
		&dbf.P{N: "Kphi", V: p.Kphi},
		&dbf.P{N: "Kc", V: p.Kc},
		&dbf.P{N: "n", V: p.N},
		&dbf.P{N: "c", V: p.C},
		&dbf.P{N: "phi", V: p.PhiDeg},
		&dbf.P{N: "J", V: p.J},
		&dbf.P{N: "K", V: p.K},
		&dbf.P{N: "R", V: p.R},
	}
}

// BulldozeParams holds the lateral-material-flow parameters.
type BulldozeParams struct {
	ErosionAngleDeg float64
	FlowFactor      float64
	Iterations      int
	Propagations    int
}

// SlopeLimit returns tan(erosion_angle), the maximum allowed height
// difference per unit spacing between neighboring erosion-domain cells.
func (p BulldozeParams) SlopeLimit() float64 { return math.Tan(p.ErosionAngleDeg * math.Pi / 180) }

// SoilParamsCallback is queried with a cell's SCM-frame location before the
// elastic trial. The
// returned eight scalars shadow the global defaults for that cell only.
type SoilParamsCallback func(loc geomutil.Vec3) (params SoilParams, ok bool)

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "time"

// StepStats reports the counters and stage timings of one Advance call, in
// the style of gofem's ele FEM solver stage timers (assembly, solve, update
// reported separately per step).
type StepStats struct {
	RayCasts      int
	RayHits       int
	ContactPatches int
	ErosionNodes  int

	DomainResolveMs    float64
	RayCastMs          float64
	SegmentationMs     float64
	ConstitutiveMs     float64
	ForceDistributionMs float64
	BulldozingMs       float64
	VisualizationMs    float64
}

// scopedTimer accumulates elapsed time into *dst when stopped; used as
// `defer scopedTimer(&stats.RayCastMs)()` around each pipeline stage.
func scopedTimer(dst *float64) func() {
	start := time.Now()
	return func() {
		*dst += float64(time.Since(start).Microseconds()) / 1000.0
	}
}

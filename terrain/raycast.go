// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"runtime"
	"sync"

	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// hit is one cell's ray-cast result, paired with the cell it came from.
type hit struct {
	idx    CellIndex
	result collision.RayHitResult
}

// dispatchRays ray-casts every cell of domain in parallel and returns the
// hits in a deterministic order.
//
// Each worker owns a private slice of hits — no shared map is written
// inside the parallel region — and cells are assigned to workers by a
// fixed stripe (cell index mod worker count), not by runtime scheduling
// order, so the result is reproducible regardless of goroutine
// interleaving. This striped-worker-pool shape is the one
// `mkelp-inmap/lib.aim/framework.go` uses for its per-cell physics loop
// (`nprocs := runtime.GOMAXPROCS(0); wg.Add(nprocs); go worker(cells,
// nprocs, procNum, &wg)`), adapted here because gofem's own concurrency is
// entirely MPI-distributed FEM assembly, with no analogous per-cell
// worker-pool pattern to draw from.
func dispatchRays(domain *ActiveDomain, store *NodeStore, frame Frame, world collision.World, boundary *geomutil.AABB, testUp, testDown float64, numWorkers int) (hits []hit, rayCasts int) {
	cells := domain.CachedCells
	n := len(cells)
	if n == 0 {
		return nil, 0
	}
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > n {
		numWorkers = n
	}

	perWorker := make([][]hit, numWorkers)
	counts := make([]int, numWorkers)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			defer wg.Done()
			var local []hit
			casts := 0
			for idx := worker; idx < n; idx += numWorkers {
				cell := cells[idx]
				if rejectedByBoundary(cell, store.Spacing(), boundary, frame) {
					continue
				}
				h := store.HeightAt(cell)
				localFrom := geomutil.Vec3{X: float64(cell.I) * store.Spacing(), Y: float64(cell.J) * store.Spacing(), Z: h + testUp}
				localTo := geomutil.Vec3{X: localFrom.X, Y: localFrom.Y, Z: h + testUp - testDown}
				worldFrom := frame.ToWorld(localFrom)
				worldTo := frame.ToWorld(localTo)
				if domain.RejectsRay(worldFrom, worldTo) {
					continue
				}
				casts++
				res := world.RayHit(worldFrom, worldTo)
				if res.Hit {
					local = append(local, hit{idx: cell, result: res})
				}
			}
			perWorker[worker] = local
			counts[worker] = casts
		}(w)
	}
	wg.Wait()

	for _, c := range counts {
		rayCasts += c
	}
	total := 0
	for _, h := range perWorker {
		total += len(h)
	}
	hits = make([]hit, 0, total)
	for w := 0; w < numWorkers; w++ {
		hits = append(hits, perWorker[w]...)
	}
	return hits, rayCasts
}

func rejectedByBoundary(idx CellIndex, spacing float64, boundary *geomutil.AABB, frame Frame) bool {
	if boundary == nil || boundary.Inverted() {
		return false
	}
	p := frame.ToWorld(geomutil.Vec3{X: float64(idx.I) * spacing, Y: float64(idx.J) * spacing})
	return p.X < boundary.Min.X || p.X > boundary.Max.X || p.Y < boundary.Min.Y || p.Y > boundary.Max.Y
}

// mergeHits inserts a fresh node record for every newly-hit cell absent
// from the store. This runs serially on
// the coordinating goroutine after the parallel region, and is the only
// place the store is mutated during ray casting.
func mergeHits(store *NodeStore, hits []hit) {
	for _, h := range hits {
		store.GetOrCreate(h.idx)
	}
}

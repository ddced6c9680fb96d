// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "github.com/jpmartin42/chrono-gpu-scm/geomutil"

// ContactPatch is a connected group of hit cells sharing a Bekker shape
// factor. Transient: rebuilt every step.
type ContactPatch struct {
	Cells     []CellIndex
	Hull      []geomutil.Point2D
	Area      float64
	Perimeter float64
	Oob       float64 // Bekker shape factor, approximating 1/b
}

var neighborOffsets = [4]CellIndex{{I: 0, J: 1}, {I: 1, J: 0}, {I: 0, J: -1}, {I: -1, J: 0}} // N,E,S,W

// segmentPatches flood-fills ordered (a deterministic, worker-stripe order
// from dispatchRays) hit cells into 4-connected contact patches, grounded on the adjacency idiom of
// katalvlaran-lvlath/gridgraph.GridGraph (4- or 8-connectivity over a cell
// grid with precomputed neighbor offsets) though reimplemented directly
// over CellIndex rather than through that package's string-keyed
// core.Graph conversion, which would allocate a vertex ID per cell on
// every step of a hot loop.
func segmentPatches(ordered []CellIndex, spacing float64) []*ContactPatch {
	hitSet := make(map[CellIndex]bool, len(ordered))
	for _, idx := range ordered {
		hitSet[idx] = true
	}
	visited := make(map[CellIndex]bool, len(ordered))
	var patches []*ContactPatch

	for _, start := range ordered {
		if visited[start] {
			continue
		}
		queue := []CellIndex{start}
		visited[start] = true
		var cells []CellIndex
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			cells = append(cells, cur)
			for _, off := range neighborOffsets {
				nb := CellIndex{I: cur.I + off.I, J: cur.J + off.J}
				if hitSet[nb] && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		patches = append(patches, buildPatch(cells, spacing))
	}
	return patches
}

func buildPatch(cells []CellIndex, spacing float64) *ContactPatch {
	pts := make([]geomutil.Point2D, len(cells))
	for i, c := range cells {
		pts[i] = geomutil.Point2D{X: float64(c.I) * spacing, Y: float64(c.J) * spacing}
	}
	hull := geomutil.ConvexHull2D(pts)
	area := geomutil.PolygonArea(hull)
	perim := geomutil.PolygonPerimeter(hull)
	oob := 0.0
	if area > 1e-6 {
		oob = perim / (2 * area)
	}
	return &ContactPatch{Cells: cells, Hull: hull, Area: area, Perimeter: perim, Oob: oob}
}

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// FieldSelector picks the scalar a visualization pass colors by.
type FieldSelector func(n *Node) float64

// SinkageField, PressureField and ShearField are the three built-in field
// selectors for visualization.
func SinkageField(n *Node) float64 { return n.Sinkage }
func PressureField(n *Node) float64 { return n.Sigma }
func ShearField(n *Node) float64    { return n.Tau }

// updateVisualization pushes the modified cells of a step into the
// embedder's persistent mesh: one vertex per cell, its
// normal approximated as the average of the cell's own normal and its four
// 4-neighbors' (falling through to the base field for any neighbor not yet
// in the store), colored by field through colormap. When mesh.Wireframe
// reports true the neighbor averaging is skipped and the cell's own normal
// is used directly, since a wireframe render has no shading to smooth.
// Cells the mesh has no vertex index for are silently skipped (the
// embedder's mesh resolution may be coarser than the SCM grid).
func updateVisualization(mesh collision.VisMesh, store *NodeStore, frame Frame, colormap collision.Colormap, field FieldSelector, vmin, vmax float64, modified []CellIndex) {
	if mesh == nil {
		return
	}
	wireframe := mesh.Wireframe()
	touched := make([]int, 0, len(modified))
	for _, idx := range modified {
		vidx, ok := mesh.VertexIndex(collision.CellKey{I: idx.I, J: idx.J})
		if !ok {
			continue
		}
		n, ok := store.Get(idx)
		if !ok {
			continue
		}
		spacing := store.Spacing()
		pos := frame.ToWorld(geomutil.Vec3{X: float64(idx.I) * spacing, Y: float64(idx.J) * spacing, Z: n.Level})

		avgNormal := n.Normal
		if !wireframe {
			sum := n.Normal
			count := 1.0
			for _, off := range neighborOffsets {
				nb := CellIndex{I: idx.I + off.I, J: idx.J + off.J}
				sum = sum.Add(store.NormalAt(nb))
				count++
			}
			avgNormal = sum.Scale(1.0 / count).Normalize()
		}
		normal := frame.DirToWorld(avgNormal)

		color := colormap.Get(field(n), vmin, vmax)
		mesh.SetVertex(vidx, pos, normal, color)
		touched = append(touched, vidx)
	}
	if len(touched) > 0 {
		mesh.Flush(touched)
	}
}

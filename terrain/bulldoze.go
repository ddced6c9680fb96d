// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "math"

// addMaterialToNode raises node.Level by amount, clamping so Level never
// exceeds HitLevel and parking any overflow in MassRemainder. LevelInitial advances by the same amount actually applied to
// Level, "so that future sinkage is referenced to the new surface".
func addMaterialToNode(n *Node, amount float64) {
	if amount <= 0 {
		return
	}
	room := n.HitLevel - n.Level
	if room < 0 {
		room = 0
	}
	applied := amount
	if applied > room {
		applied = room
	}
	n.Level += applied
	n.LevelInitial += applied
	n.MassRemainder += amount - applied
}

// removeMaterialFromNode drains MassRemainder before reducing Level.
func removeMaterialFromNode(n *Node, amount float64) {
	if amount <= 0 {
		return
	}
	if n.MassRemainder >= amount {
		n.MassRemainder -= amount
		return
	}
	remaining := amount - n.MassRemainder
	n.MassRemainder = 0
	n.Level -= remaining
}

func transferMaterial(from, to *Node, amount float64) {
	removeMaterialFromNode(from, amount)
	addMaterialToNode(to, amount)
}

// runBulldozing executes the three bulldozing stages over the patches
// formed this step. contactedThisStep holds every cell that received a ray
// hit this step, whatever the sign of its elastic-trial pressure, which is
// what "currently in contact" means for the boundary and dilation rules.
func (o *SCM) runBulldozing(patches []*ContactPatch, contactedThisStep map[CellIndex]bool) {
	if !o.bulldozingEnabled {
		return
	}
	spacing := o.store.Spacing()
	slopeLimit := o.bulldozeParams.SlopeLimit() * spacing

	// stage 1: boundary raise, one pass per patch (Open Question (c): a
	// cell at the seam of two patches may be raised once per patch).
	var erosionOrder []CellIndex
	erosionSet := make(map[CellIndex]bool)
	addErosion := func(idx CellIndex) {
		if !erosionSet[idx] {
			erosionSet[idx] = true
			erosionOrder = append(erosionOrder, idx)
		}
	}

	for _, patch := range patches {
		q := 0.0
		for _, idx := range patch.Cells {
			if n, ok := o.store.Get(idx); ok {
				q += n.StepPlasticFlow
			}
		}
		q *= o.lastDt

		var boundary []CellIndex
		seen := make(map[CellIndex]bool)
		inPatch := make(map[CellIndex]bool, len(patch.Cells))
		for _, idx := range patch.Cells {
			inPatch[idx] = true
		}
		for _, idx := range patch.Cells {
			for _, off := range neighborOffsets {
				nb := CellIndex{I: idx.I + off.I, J: idx.J + off.J}
				if inPatch[nb] || seen[nb] {
					continue
				}
				seen[nb] = true
				_, inStore := o.store.Get(nb)
				if !inStore || !contactedThisStep[nb] {
					boundary = append(boundary, nb)
				}
			}
		}
		if len(boundary) == 0 {
			continue
		}
		raise := o.bulldozeParams.FlowFactor * q / float64(len(boundary))
		for _, idx := range boundary {
			n := o.store.GetOrCreate(idx)
			addMaterialToNode(n, raise)
			n.Erosion = true
			o.store.MarkModified(idx)
			addErosion(idx)
		}
	}

	// stage 2: dilate the erosion domain by P concentric 4-connected
	// expansions, including any non-contact neighbor.
	frontier := append([]CellIndex{}, erosionOrder...)
	for p := 0; p < o.bulldozeParams.Propagations; p++ {
		var next []CellIndex
		for _, idx := range frontier {
			for _, off := range neighborOffsets {
				nb := CellIndex{I: idx.I + off.I, J: idx.J + off.J}
				if erosionSet[nb] || contactedThisStep[nb] {
					continue
				}
				n := o.store.GetOrCreate(nb)
				n.Erosion = true
				o.store.MarkModified(nb)
				addErosion(nb)
				next = append(next, nb)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	// stage 3: smoothing passes, iterating the erosion domain in its
	// deterministic insertion order.
	for iter := 0; iter < o.bulldozeParams.Iterations; iter++ {
		for _, idx := range erosionOrder {
			cur, ok := o.store.Get(idx)
			if !ok {
				continue
			}
			for _, off := range neighborOffsets {
				nb := CellIndex{I: idx.I + off.I, J: idx.J + off.J}
				other, ok := o.store.Get(nb)
				if !ok {
					continue
				}
				// (a) mass equalization
				diff := cur.MassRemainder - other.MassRemainder
				if diff > 0 {
					transferMaterial(cur, other, 0.5*diff/4)
				} else if diff < 0 {
					transferMaterial(other, cur, 0.5*(-diff)/4)
				}
				// (b) slope limit
				dy := (cur.Level + cur.MassRemainder) - (other.Level + other.MassRemainder)
				excess := math.Abs(dy) - slopeLimit
				if excess > 0 {
					amount := 0.5 * excess / 4
					if dy > 0 {
						transferMaterial(cur, other, amount)
					} else {
						transferMaterial(other, cur, amount)
					}
				}
				o.store.MarkModified(idx)
				o.store.MarkModified(nb)
			}
		}
	}
}

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "testing"

func TestSegmentPatchesGroupsFourConnectedCells(t *testing.T) {
	ordered := []CellIndex{
		{I: 0, J: 0}, {I: 1, J: 0}, {I: 0, J: 1}, // one connected blob
		{I: 10, J: 10}, // isolated
	}
	patches := segmentPatches(ordered, 0.1)
	if len(patches) != 2 {
		t.Fatalf("expected 2 patches (one 3-cell blob, one singleton), got %d", len(patches))
	}
	sizes := map[int]int{}
	for _, p := range patches {
		sizes[len(p.Cells)]++
	}
	if sizes[3] != 1 || sizes[1] != 1 {
		t.Fatalf("expected one 3-cell patch and one 1-cell patch, got sizes=%v", sizes)
	}
}

func TestSegmentPatchesDiagonalCellsAreNotConnected(t *testing.T) {
	ordered := []CellIndex{{I: 0, J: 0}, {I: 1, J: 1}}
	patches := segmentPatches(ordered, 0.1)
	if len(patches) != 2 {
		t.Fatalf("diagonal neighbors are not 4-connected; expected 2 patches, got %d", len(patches))
	}
}

func TestBuildPatchShapeFactorIsZeroForDegenerateArea(t *testing.T) {
	p := buildPatch([]CellIndex{{I: 0, J: 0}}, 0.1)
	if p.Oob != 0 {
		t.Fatalf("a single-cell patch has zero hull area; expected Oob=0, got %v", p.Oob)
	}
}

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"math"
	"testing"

	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

const testDelta = 0.1

func bigBox() geomutil.AABB {
	return geomutil.AABB{Min: geomutil.Vec3{X: -5, Y: -5, Z: -5}, Max: geomutil.Vec3{X: 5, Y: 5, Z: 5}}
}

// TestFlatTerrainNoContact is scenario 1: a flat field with a
// world that never reports a hit must leave the sparse store empty.
func TestFlatTerrainNoContact(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "none"}
	world := &planeWorld{surfaceZ: -1000, body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	if got := scm.Stats().RayHits; got != 0 {
		t.Fatalf("expected zero ray hits, got %d", got)
	}
	if len(scm.GetModifiedNodes(true)) != 0 {
		t.Fatalf("expected an empty grid store with no contact, got %d nodes", len(scm.GetModifiedNodes(true)))
	}
}

// TestNoHitNoMutation is the first invariant: a ray that never
// hits anything must not create or alter any node record.
func TestNoHitNoMutation(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "none"}
	world := &planeWorld{surfaceZ: 1000, body: body, box: bigBox()} // surface far above every probe ray
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	if len(scm.GetModifiedNodes(false)) != 0 {
		t.Fatalf("expected no modified nodes when nothing is hit, got %d", len(scm.GetModifiedNodes(false)))
	}
}

func squareFootprint(half float64) func(x, y float64) bool {
	return func(x, y float64) bool {
		return math.Abs(x) <= half+1e-9 && math.Abs(y) <= half+1e-9
	}
}

// TestBulldozingDisabledModifiedCountMatchesPositivePressureHits is the
// modified-count invariant: with bulldozing off, every modified
// node this step is exactly a hit cell whose elastic trial was positive.
func TestBulldozingDisabledModifiedCountMatchesPositivePressureHits(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "blade", pos: geomutil.Vec3{}}
	world := &planeWorld{surfaceZ: -0.02, footprint: squareFootprint(1.5 * testDelta), body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())
	scm.EnableBulldozing(false)
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	if got, want := scm.Stats().RayHits, 9; got != want {
		t.Fatalf("expected the 3x3 footprint to register %d hits, got %d", want, got)
	}
	modified := scm.GetModifiedNodes(false)
	if len(modified) != 9 {
		t.Fatalf("expected 9 modified nodes (all with positive elastic trial pressure), got %d", len(modified))
	}
	for _, mn := range modified {
		if mn.Node.Sigma < 0 {
			t.Fatalf("invariant violated: sigma=%v < 0 at (%d,%d)", mn.Node.Sigma, mn.I, mn.J)
		}
	}
}

// TestSigmaYieldMonotoneAndSinkageDecomposition covers the sigma>=0 and
// sigma_yield-monotone-non-decreasing invariants and the sinkage
// decomposition identity, across two successive steps of a
// resting contact where the surface depth never changes.
func TestSigmaYieldMonotoneAndSinkageDecomposition(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "sphere", pos: geomutil.Vec3{}}
	world := &planeWorld{surfaceZ: -0.05, footprint: squareFootprint(0.5 * testDelta), body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())

	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	n1, ok := scm.GetNodeInfo(0, 0)
	if !ok {
		t.Fatal("expected cell (0,0) to have been hit")
	}
	if n1.Sigma < 0 {
		t.Fatalf("sigma must be >= 0, got %v", n1.Sigma)
	}
	if diffAbs(n1.SinkageElastic+n1.SinkagePlastic, n1.Sinkage) > 1e-9 {
		t.Fatalf("sinkage_elastic + sinkage_plastic must equal sinkage: %v + %v != %v", n1.SinkageElastic, n1.SinkagePlastic, n1.Sinkage)
	}

	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	n2, ok := scm.GetNodeInfo(0, 0)
	if !ok {
		t.Fatal("expected cell (0,0) to still be present")
	}
	if n2.Sigma < 0 {
		t.Fatalf("sigma must be >= 0, got %v", n2.Sigma)
	}
	if n2.SigmaYield < n1.SigmaYield-1e-9 {
		t.Fatalf("sigma_yield must be monotone non-decreasing: step1=%v step2=%v", n1.SigmaYield, n2.SigmaYield)
	}
	if diffAbs(n2.SinkageElastic+n2.SinkagePlastic, n2.Sinkage) > 1e-9 {
		t.Fatalf("sinkage decomposition must still hold on the second step: %v + %v != %v", n2.SinkageElastic, n2.SinkagePlastic, n2.Sinkage)
	}
}

// TestDegeneratePatchAppliesNoCohesion checks that a single-cell (hence
// zero-area, zero shape-factor) contact patch contributes no Kc term to
// the Bekker pressure: the degenerate-patch shape factor must be 0, not 1,
// or a soil with nonzero cohesion would get a spurious full-cohesion
// pressure boost on every single-cell contact.
func TestDegeneratePatchAppliesNoCohesion(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "sphere", pos: geomutil.Vec3{}}
	world := &planeWorld{surfaceZ: -0.05, footprint: squareFootprint(0.5 * testDelta), body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	soil := defaultSoil()
	soil.Kc = 1e5
	scm.SetSoilParameters(soil)
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	if got, want := scm.Stats().ContactPatches, 1; got != want {
		t.Fatalf("expected a single contact patch, got %d", got)
	}
	n, ok := scm.GetNodeInfo(0, 0)
	if !ok {
		t.Fatal("expected cell (0,0) to have been hit")
	}
	expected := soil.Kphi * math.Pow(n.Sinkage, soil.N)
	if diffAbs(n.Sigma, expected) > 1e-6 {
		t.Fatalf("expected sigma=%v (Kphi term only, no Kc), got %v", expected, n.Sigma)
	}
}

// TestCheckpointRoundTrip is the GetModifiedNodes/SetModifiedNodes
// round-trip invariant: replaying a full checkpoint must restore every
// reported cell's height exactly.
func TestCheckpointRoundTrip(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "sphere", pos: geomutil.Vec3{}}
	world := &planeWorld{surfaceZ: -0.05, footprint: squareFootprint(0.5 * testDelta), body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	snapshot := scm.GetModifiedNodes(true)
	if len(snapshot) == 0 {
		t.Fatal("expected at least one node after a contact step")
	}

	// perturb the live store, then restore from the snapshot.
	for _, mn := range snapshot {
		n, ok := scm.store.Get(CellIndex{I: mn.I, J: mn.J})
		if !ok {
			t.Fatal("snapshot referenced a cell absent from the live store")
		}
		n.Level += 999
	}
	scm.SetModifiedNodes(snapshot)

	for _, mn := range snapshot {
		if got := scm.GetHeight(mn.I, mn.J); diffAbs(got, mn.Node.Level) > 1e-12 {
			t.Fatalf("cell (%d,%d): expected restored height %v, got %v", mn.I, mn.J, mn.Node.Level, got)
		}
	}
}

// TestTranslationInvariance is the translation-invariance law:
// shifting the SCM frame and the colliding body by the same integer
// multiple of delta in (x,y) must not change the resulting sigma at the
// corresponding cell.
func TestTranslationInvariance(t *testing.T) {
	run := func(offset geomutil.Vec3) float64 {
		base, err := InitFlat(1, 1, testDelta)
		if err != nil {
			t.Fatal(err)
		}
		body := &fakeBody{id: "sphere", pos: offset}
		world := &planeWorld{
			surfaceZ: -0.05,
			footprint: func(x, y float64) bool {
				return squareFootprint(0.5 * testDelta)(x-offset.X, y-offset.Y)
			},
			body: body,
			box:  geomutil.AABB{Min: geomutil.Vec3{X: -5, Y: -5, Z: -5}.Add(offset), Max: geomutil.Vec3{X: 5, Y: 5, Z: 5}.Add(offset)},
		}
		frame := Frame{Origin: offset, AxisX: geomutil.Vec3{X: 1}, AxisY: geomutil.Vec3{Y: 1}, AxisZ: geomutil.Vec3{Z: 1}}
		scm, err := New(base, world)
		if err != nil {
			t.Fatal(err)
		}
		scm.SetReferenceFrame(frame)
		scm.SetSoilParameters(defaultSoil())
		if err := scm.Advance(0.01); err != nil {
			t.Fatal(err)
		}
		n, ok := scm.GetNodeInfo(0, 0)
		if !ok {
			t.Fatal("expected cell (0,0) in the shifted frame to be hit")
		}
		return n.Sigma
	}

	sigmaA := run(geomutil.Vec3{})
	sigmaB := run(geomutil.Vec3{X: 3 * testDelta, Y: 2 * testDelta})
	if diffAbs(sigmaA, sigmaB) > 1e-9 {
		t.Fatalf("translation invariance violated: sigma at origin=%v, sigma after shift=%v", sigmaA, sigmaB)
	}
}

// TestCosimulationModeWithholdsLoadsButKeepsForceQueryable checks that with
// cosim enabled, no load reaches the body, yet GetContactForceBody still
// reports the accumulated force.
func TestCosimulationModeWithholdsLoadsButKeepsForceQueryable(t *testing.T) {
	base, err := InitFlat(1, 1, testDelta)
	if err != nil {
		t.Fatal(err)
	}
	body := &fakeBody{id: "sphere", pos: geomutil.Vec3{}}
	world := &planeWorld{surfaceZ: -0.05, footprint: squareFootprint(0.5 * testDelta), body: body, box: bigBox()}
	scm, err := New(base, world)
	if err != nil {
		t.Fatal(err)
	}
	scm.SetSoilParameters(defaultSoil())
	scm.SetCosimulationMode(true)
	if err := scm.Advance(0.01); err != nil {
		t.Fatal(err)
	}
	if body.loadCalls != 0 {
		t.Fatalf("cosimulation mode must not submit loads, got %d ApplyLoad calls", body.loadCalls)
	}
	force, _ := scm.GetContactForceBody("sphere")
	if force.Z <= 0 {
		t.Fatalf("expected a nonzero upward contact force from GetContactForceBody even in cosim mode, got %v", force.Z)
	}
}

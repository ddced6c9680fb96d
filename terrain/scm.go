// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/jpmartin42/chrono-gpu-scm/collision"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// SCM is the facade an embedder drives once per integrator step. It owns
// the sparse node store, the registered active domains, the global and
// per-object soil parameters, and the accumulated per-step counters, in the
// same "one struct holds everything a step needs" shape as gofem's
// fem.Domain.
type SCM struct {
	store *NodeStore
	frame Frame

	world    collision.World
	boundary *geomutil.AABB

	testUp, testDown float64
	numWorkers       int

	domains []*ActiveDomain

	soil   SoilParams
	soilCB SoilParamsCallback

	bulldozingEnabled bool
	bulldozeParams    BulldozeParams

	cosim bool
	dist  *ForceDistributor
	lastDt float64

	vismesh   collision.VisMesh
	colormap  collision.Colormap
	visField  FieldSelector
	visMin    float64
	visMax    float64

	stats StepStats

	verbose bool
}

// New creates an SCM core over a base heightfield and the collision world it
// ray-casts against, with the identity frame and no soil parameters set.
// Callers are expected to follow with SetSoilParameters before the first
// Advance.
func New(base BaseField, world collision.World) (*SCM, error) {
	if world == nil {
		return nil, chk.Err("terrain.New: world must not be nil")
	}
	return &SCM{
		store:      NewNodeStore(base),
		frame:      DefaultFrame(),
		world:      world,
		testUp:     1.0,
		testDown:   2.0,
		numWorkers: 0, // 0 means runtime.GOMAXPROCS(0), resolved in dispatchRays
		colormap:   DefaultColormap{},
		visField:   SinkageField,
		visMax:     0.1,
	}, nil
}

// SetSoilParameters sets the global Bekker/Janosi-Hanamoto/elastic-plastic
// defaults used when no per-cell callback overrides them.
func (o *SCM) SetSoilParameters(p SoilParams) { o.soil = p }

// RegisterSoilParametersCallback installs a per-cell override, queried by
// SCM-frame location before each cell's elastic trial.
func (o *SCM) RegisterSoilParametersCallback(cb SoilParamsCallback) { o.soilCB = cb }

// EnableBulldozing turns the lateral-material-flow stage on or off. Disabled by default.
func (o *SCM) EnableBulldozing(enabled bool) { o.bulldozingEnabled = enabled }

// SetBulldozingParameters sets the lateral-flow parameters.
func (o *SCM) SetBulldozingParameters(p BulldozeParams) { o.bulldozeParams = p }

// SetReferenceFrame sets the rigid frame deformation occurs along. Must not
// be changed once nodes have been created; the embedder is expected to call
// this once, before the first Advance.
func (o *SCM) SetReferenceFrame(f Frame) { o.frame = f }

// SetBoundary restricts ray casting to an axis-aligned world-space
// rectangle; an inverted or nil boundary disables the restriction.
func (o *SCM) SetBoundary(b *geomutil.AABB) { o.boundary = b }

// SetTestHeight sets the vertical extent of each cell's ray-cast probe: the
// ray starts testUp above the cell's current height and runs testDown
// downward from there, so it ends testDown-testUp below that height.
// Raising testUp moves both ends of the ray up by the same amount.
func (o *SCM) SetTestHeight(testUp, testDown float64) {
	o.testUp = testUp
	o.testDown = testDown
}

// SetNumWorkers overrides the ray-cast worker-pool size; 0 selects
// runtime.GOMAXPROCS(0).
func (o *SCM) SetNumWorkers(n int) { o.numWorkers = n }

// SetVerbose toggles the per-step trace of hit/patch/erosion counters
// printed via io.Pf, off by default.
func (o *SCM) SetVerbose(v bool) { o.verbose = v }

// AddActiveDomain registers a user-defined active domain tracking body,
// returning it so the caller may later inspect it.
// If no domain has been registered by the first Advance, the default
// collision-world-bounding-box domain is used instead.
func (o *SCM) AddActiveDomain(body collision.RigidBody, center, halfDim geomutil.Vec3) *ActiveDomain {
	d := NewActiveDomain(body, center, halfDim)
	o.domains = append(o.domains, d)
	return d
}

// SetCosimulationMode toggles co-simulation mode: when enabled, Advance
// still runs the full pipeline and forces remain queryable through
// GetContactForceBody/GetContactForceNode, but are never submitted as loads.
func (o *SCM) SetCosimulationMode(enabled bool) { o.cosim = enabled }

// SetVisMesh installs the embedder's persistent visualization mesh, the
// field to color it by, the color-scale range, and an optional colormap
// (nil keeps DefaultColormap).
func (o *SCM) SetVisMesh(mesh collision.VisMesh, field FieldSelector, vmin, vmax float64, colormap collision.Colormap) {
	o.vismesh = mesh
	o.visField = field
	o.visMin = vmin
	o.visMax = vmax
	if colormap != nil {
		o.colormap = colormap
	}
}

// GetHeight returns the current (possibly deformed) height at a cell.
func (o *SCM) GetHeight(i, j int) float64 { return o.store.HeightAt(CellIndex{I: i, J: j}) }

// GetNormal returns the undeformed normal at a cell: the one stored when its
// node was created, or the base field's estimate if it has no node.
func (o *SCM) GetNormal(i, j int) geomutil.Vec3 { return o.store.NormalAt(CellIndex{I: i, J: j}) }

// GetInitHeight returns the undeformed height at a cell.
func (o *SCM) GetInitHeight(i, j int) float64 {
	idx := CellIndex{I: i, J: j}
	if n, ok := o.store.Get(idx); ok {
		return n.LevelInitial
	}
	return o.store.HeightAt(idx)
}

// GetInitNormal returns the undeformed normal at a cell — identical to
// GetNormal, since the base field's normal estimate never changes.
func (o *SCM) GetInitNormal(i, j int) geomutil.Vec3 { return o.GetNormal(i, j) }

// GetNodeInfo returns the full per-cell state record if the cell has ever
// been touched, for introspection and debugging.
func (o *SCM) GetNodeInfo(i, j int) (Node, bool) {
	n, ok := o.store.Get(CellIndex{I: i, J: j})
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// ModifiedNode is one entry of the checkpoint payload.
type ModifiedNode struct {
	I, J int
	Node Node
}

// GetModifiedNodes returns the persisted-state payload: either just the
// cells touched during the most recent Advance (all=false) or the full
// sparse store (all=true).
func (o *SCM) GetModifiedNodes(all bool) []ModifiedNode {
	var out []ModifiedNode
	if all {
		for idx, n := range o.store.All() {
			out = append(out, ModifiedNode{I: idx.I, J: idx.J, Node: *n})
		}
		return out
	}
	for _, idx := range o.store.Modified() {
		n, ok := o.store.Get(idx)
		if !ok {
			continue
		}
		out = append(out, ModifiedNode{I: idx.I, J: idx.J, Node: *n})
	}
	return out
}

// SetModifiedNodes restores a checkpoint payload, overwriting or creating
// each named node.
func (o *SCM) SetModifiedNodes(nodes []ModifiedNode) {
	for _, mn := range nodes {
		idx := CellIndex{I: mn.I, J: mn.J}
		n := o.store.GetOrCreate(idx)
		*n = mn.Node
	}
}

// GetContactForceBody returns the force and torque-about-COM accumulated on
// a rigid body during the most recent Advance.
func (o *SCM) GetContactForceBody(identity string) (force, torque geomutil.Vec3) {
	if o.dist == nil {
		return geomutil.Vec3{}, geomutil.Vec3{}
	}
	return o.dist.ForceOnBody(identity)
}

// GetContactForceNode returns the force accumulated on an FEA node during
// the most recent Advance.
func (o *SCM) GetContactForceNode(node collision.FEATriangleNode) geomutil.Vec3 {
	if o.dist == nil {
		return geomutil.Vec3{}
	}
	return o.dist.ForceOnNode(node)
}

// Stats returns the counters and stage timings of the most recent Advance.
func (o *SCM) Stats() StepStats { return o.stats }

// Advance runs one full step of the pipeline: resolve active domains, cast
// rays, segment contact patches, run the elastic-trial/plastic-return
// constitutive update, distribute forces, bulldoze, and push the touched
// cells to the visualization mesh. dt is the integrator step size in seconds.
func (o *SCM) Advance(dt float64) error {
	if dt <= 0 {
		return chk.Err("terrain.Advance: dt=%v must be positive", dt)
	}
	o.lastDt = dt
	o.store.ResetModified()
	o.stats = StepStats{}
	for _, n := range o.store.All() {
		n.HitLevel = math.Inf(1)
		n.Erosion = false
	}

	domains := o.domains
	if len(domains) == 0 {
		domains = []*ActiveDomain{NewDefaultActiveDomain()}
	}
	nx, ny := o.store.Bounds()

	var allHits []hit
	func() {
		defer scopedTimer(&o.stats.DomainResolveMs)()
		for _, d := range domains {
			d.Resolve(o.frame, o.world, o.store.Spacing(), nx, ny)
		}
	}()

	func() {
		defer scopedTimer(&o.stats.RayCastMs)()
		for _, d := range domains {
			hits, casts := dispatchRays(d, o.store, o.frame, o.world, o.boundary, o.testUp, o.testDown, o.numWorkers)
			allHits = append(allHits, hits...)
			o.stats.RayCasts += casts
		}
	}()
	o.stats.RayHits = len(allHits)
	mergeHits(o.store, allHits)

	hitMap := make(map[CellIndex]collision.RayHitResult, len(allHits))
	ordered := make([]CellIndex, 0, len(allHits))
	contacted := make(map[CellIndex]bool, len(allHits))
	for _, h := range allHits {
		if _, dup := hitMap[h.idx]; !dup {
			ordered = append(ordered, h.idx)
		}
		hitMap[h.idx] = h.result
		contacted[h.idx] = true
	}

	var patches []*ContactPatch
	func() {
		defer scopedTimer(&o.stats.SegmentationMs)()
		patches = segmentPatches(ordered, o.store.Spacing())
	}()
	o.stats.ContactPatches = len(patches)

	var forces []cellForce
	func() {
		defer scopedTimer(&o.stats.ConstitutiveMs)()
		forces = o.updateConstitutive(patches, hitMap, dt)
	}()

	o.dist = newForceDistributor()
	func() {
		defer scopedTimer(&o.stats.ForceDistributionMs)()
		for _, f := range forces {
			o.dist.Accumulate(f)
		}
		if !o.cosim {
			surfaces := make(map[string]collision.LoadSurface)
			for _, f := range forces {
				if f.contactable.Kind() != collision.KindLoadSurface {
					continue
				}
				if s, ok := f.contactable.(collision.LoadSurface); ok {
					surfaces[s.Identity()] = s
				}
			}
			o.dist.Submit(surfaces)
		}
	}()

	func() {
		defer scopedTimer(&o.stats.BulldozingMs)()
		o.runBulldozing(patches, contacted)
	}()
	for _, n := range o.store.All() {
		if n.Erosion {
			o.stats.ErosionNodes++
		}
	}

	func() {
		defer scopedTimer(&o.stats.VisualizationMs)()
		updateVisualization(o.vismesh, o.store, o.frame, o.colormap, o.visField, o.visMin, o.visMax, o.store.Modified())
	}()

	if o.verbose {
		io.Pf("scm: rays=%d hits=%d patches=%d erosion=%d\n", o.stats.RayCasts, o.stats.RayHits, o.stats.ContactPatches, o.stats.ErosionNodes)
	}

	return nil
}

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package terrain implements the Soil Contact Model deformable-terrain
// core: a sparse, lazily-materialized heightfield grid, the per-step
// ray-cast / segmentation / constitutive-update / force-distribution /
// bulldozing / visualization pipeline, and the SCM facade the embedder
// drives once per integrator step.
package terrain

import (
	"math"

	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// CellIndex is the integer key of a grid cell.
type CellIndex struct {
	I, J int
}

// Node is the persistent per-cell state created on first ray hit (or first
// bulldozing touch) and never destroyed.
type Node struct {
	LevelInitial float64 // undeformed height at creation; may drift upward during bulldozing
	Level        float64 // current height
	HitLevel     float64 // height of the ray intersection this step (+Inf sentinel if no hit)
	Normal       geomutil.Vec3

	Sinkage         float64
	SinkageElastic  float64
	SinkagePlastic  float64
	Sigma           float64
	SigmaYield      float64
	KShear          float64 // accumulated tangential shear displacement (Janosi state)
	Tau             float64

	Erosion         bool
	MassRemainder   float64
	StepPlasticFlow float64
}

// BaseField supplies the dense initial heightfield and its bilinearly
// estimated normal for cells not yet present in the sparse store. Implementations are produced by InitFlat/InitHeightmap/InitMesh.
type BaseField interface {
	HeightAt(i, j int) float64
	NormalAt(i, j int) geomutil.Vec3
	Spacing() float64
	Bounds() (nx, ny int) // grid half-extents: valid indices are [-nx,nx]x[-ny,ny]
}

// NodeStore is the sparse map from cell index to persistent node record.
// Missing lookups fall through to the base heightfield.
type NodeStore struct {
	base     BaseField
	nodes    map[CellIndex]*Node
	modified []CellIndex
	modSet   map[CellIndex]bool
}

// NewNodeStore creates an empty store backed by base.
func NewNodeStore(base BaseField) *NodeStore {
	return &NodeStore{
		base:   base,
		nodes:  make(map[CellIndex]*Node),
		modSet: make(map[CellIndex]bool),
	}
}

// Get returns the node at idx if present, without creating one.
func (s *NodeStore) Get(idx CellIndex) (*Node, bool) {
	n, ok := s.nodes[idx]
	return n, ok
}

// GetOrCreate returns the node at idx, creating and inserting a fresh one
// initialized from the base heightfield if absent.
func (s *NodeStore) GetOrCreate(idx CellIndex) *Node {
	if n, ok := s.nodes[idx]; ok {
		return n
	}
	h := s.clampedBaseHeight(idx)
	n := &Node{
		LevelInitial: h,
		Level:        h,
		HitLevel:     math.Inf(1),
		Normal:       s.clampedBaseNormal(idx),
	}
	s.nodes[idx] = n
	return n
}

// HeightAt returns the current height at idx, falling through to the base
// heightfield, clamped to the grid interior, when absent.
func (s *NodeStore) HeightAt(idx CellIndex) float64 {
	if n, ok := s.nodes[idx]; ok {
		return n.Level
	}
	return s.clampedBaseHeight(idx)
}

// NormalAt returns the undeformed normal at idx, falling through to the
// base field's bilinear estimator when absent.
func (s *NodeStore) NormalAt(idx CellIndex) geomutil.Vec3 {
	if n, ok := s.nodes[idx]; ok {
		return n.Normal
	}
	return s.clampedBaseNormal(idx)
}

func (s *NodeStore) clampedBaseHeight(idx CellIndex) float64 {
	i, j := s.clampToGrid(idx)
	return s.base.HeightAt(i, j)
}

func (s *NodeStore) clampedBaseNormal(idx CellIndex) geomutil.Vec3 {
	i, j := s.clampToGrid(idx)
	return s.base.NormalAt(i, j)
}

func (s *NodeStore) clampToGrid(idx CellIndex) (int, int) {
	nx, ny := s.base.Bounds()
	i, j := idx.I, idx.J
	if i < -nx {
		i = -nx
	} else if i > nx {
		i = nx
	}
	if j < -ny {
		j = -ny
	} else if j > ny {
		j = ny
	}
	return i, j
}

// MarkModified records idx as touched this step, for incremental
// visualization and checkpoint bookkeeping. Safe to call repeatedly for the
// same cell within one step.
func (s *NodeStore) MarkModified(idx CellIndex) {
	if s.modSet[idx] {
		return
	}
	s.modSet[idx] = true
	s.modified = append(s.modified, idx)
}

// Modified returns the cells touched since the last ResetModified.
func (s *NodeStore) Modified() []CellIndex {
	return s.modified
}

// ResetModified clears the modified-cells list at the start of a new step.
func (s *NodeStore) ResetModified() {
	s.modified = s.modified[:0]
	for k := range s.modSet {
		delete(s.modSet, k)
	}
}

// All returns every node currently in the store. Used by GetModifiedNodes
// when all=true.
func (s *NodeStore) All() map[CellIndex]*Node {
	return s.nodes
}

// Spacing returns the grid's uniform cell spacing.
func (s *NodeStore) Spacing() float64 { return s.base.Spacing() }

// Bounds returns the grid's half-extents, as passed through from the base
// field.
func (s *NodeStore) Bounds() (nx, ny int) { return s.base.Bounds() }

// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import (
	"image"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/jpmartin42/chrono-gpu-scm/geomutil"
)

// denseBaseField is the dense (2Nx+1)x(2Ny+1) initial heightfield.
type denseBaseField struct {
	nx, ny  int
	delta   float64
	heights [][]float64 // [i+nx][j+ny]
}

func newDenseBaseField(nx, ny int, delta float64) *denseBaseField {
	h := make([][]float64, 2*nx+1)
	for i := range h {
		h[i] = make([]float64, 2*ny+1)
	}
	return &denseBaseField{nx: nx, ny: ny, delta: delta, heights: h}
}

func (f *denseBaseField) at(i, j int) float64 {
	return f.heights[i+f.nx][j+f.ny]
}

func (f *denseBaseField) set(i, j int, v float64) {
	f.heights[i+f.nx][j+f.ny] = v
}

func (f *denseBaseField) HeightAt(i, j int) float64 { return f.at(i, j) }

// NormalAt estimates the surface normal at cell (i,j) via a four-neighbor
// central finite difference on the base height.
func (f *denseBaseField) NormalAt(i, j int) geomutil.Vec3 {
	h := func(ii, jj int) float64 {
		if ii < -f.nx {
			ii = -f.nx
		} else if ii > f.nx {
			ii = f.nx
		}
		if jj < -f.ny {
			jj = -f.ny
		} else if jj > f.ny {
			jj = f.ny
		}
		return f.at(ii, jj)
	}
	dzdx := (h(i+1, j) - h(i-1, j)) / (2 * f.delta)
	dzdy := (h(i, j+1) - h(i, j-1)) / (2 * f.delta)
	n := geomutil.Vec3{X: -dzdx, Y: -dzdy, Z: 1}
	return n.Normalize()
}

func (f *denseBaseField) Spacing() float64       { return f.delta }
func (f *denseBaseField) Bounds() (int, int)     { return f.nx, f.ny }

// gridDims computes (Nx, Ny, Δ) for side lengths (Sx,Sy) and target spacing δ:
// Nx = ceil(Sx/(2δ)), actual Δ = Sx/(2Nx), so the Nx cells on either side of
// the origin span Sx/2.
func gridDims(Sx, Sy, delta float64) (nx, ny int, dx, dy float64) {
	nx = int(math.Ceil(Sx / (2 * delta)))
	ny = int(math.Ceil(Sy / (2 * delta)))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	dx = Sx / (2 * float64(nx))
	dy = Sy / (2 * float64(ny))
	return
}

// InitFlat builds a flat base heightfield of side lengths (Sx,Sy) at target
// spacing delta. The actual spacing may differ slightly from delta so that
// the grid covers exactly [-Sx/2,Sx/2]x[-Sy/2,Sy/2]; gofem's FEM grids use a single
// uniform Δ for the same reason, so SCM uses the average of the two axis
// spacings rather than carrying Δx≠Δy through the rest of the pipeline,
// which assumes square cells (contact-patch hull area, bulldozing cell
// area).
func InitFlat(Sx, Sy, delta float64) (BaseField, error) {
	if Sx <= 0 || Sy <= 0 || delta <= 0 {
		return nil, chk.Err("InitFlat: Sx=%v, Sy=%v and delta=%v must all be positive", Sx, Sy, delta)
	}
	nx, ny, dx, dy := gridDims(Sx, Sy, delta)
	f := newDenseBaseField(nx, ny, (dx+dy)/2)
	return f, nil
}

// InitHeightmap builds a base heightfield by bilinearly sampling a
// single-channel image. img's top-left
// origin is flipped to match the grid's bottom-left origin.
func InitHeightmap(img image.Image, Sx, Sy, hMin, hMax, delta float64) (BaseField, error) {
	if img == nil {
		return nil, chk.Err("InitHeightmap: image is nil")
	}
	if hMax < hMin {
		return nil, chk.Err("InitHeightmap: hMax=%v must be >= hMin=%v", hMax, hMin)
	}
	nx, ny, dx, dy := gridDims(Sx, Sy, delta)
	f := newDenseBaseField(nx, ny, (dx+dy)/2)
	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()
	if iw < 2 || ih < 2 {
		return nil, chk.Err("InitHeightmap: image must be at least 2x2, got %dx%d", iw, ih)
	}
	gray := func(px, py int) float64 {
		if px < 0 {
			px = 0
		} else if px >= iw {
			px = iw - 1
		}
		if py < 0 {
			py = 0
		} else if py >= ih {
			py = ih - 1
		}
		r, g, b, _ := img.At(bounds.Min.X+px, bounds.Min.Y+py).RGBA()
		// Rec. 601 luma, sufficient for a single-channel heightmap source.
		return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
	}
	for i := -nx; i <= nx; i++ {
		for j := -ny; j <= ny; j++ {
			// fractional grid position in [0,1]x[0,1]
			u := (float64(i) + float64(nx)) / float64(2*nx)
			v := (float64(j) + float64(ny)) / float64(2*ny)
			// flip v: grid's +y (bottom-left origin) maps to image row 0 at the top
			fx := u * float64(iw-1)
			fy := (1 - v) * float64(ih-1)
			x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
			tx, ty := fx-float64(x0), fy-float64(y0)
			g00 := gray(x0, y0)
			g10 := gray(x0+1, y0)
			g01 := gray(x0, y0+1)
			g11 := gray(x0+1, y0+1)
			gval := g00*(1-tx)*(1-ty) + g10*tx*(1-ty) + g01*(1-tx)*ty + g11*tx*ty
			f.set(i, j, hMin+gval*(hMax-hMin))
		}
	}
	return f, nil
}

// Triangle is a single triangle of a triangle-mesh initializer input.
// Vertices are in the SCM frame.
type Triangle struct {
	A, B, C geomutil.Vec3
}

// InitMesh builds a base heightfield from a triangle mesh. Cells never
// covered by any triangle retain zBase + the mesh's minimum z (the
// external-boundary policy). Triangles are rasterized in input order;
// overlapping triangles are resolved last-write-wins in that same order,
// kept deterministic regardless of map iteration by looping the input
// slice directly rather than a set.
func InitMesh(tris []Triangle, delta, zBase float64) (BaseField, error) {
	if len(tris) == 0 {
		return nil, chk.Err("InitMesh: no triangles supplied")
	}
	if delta <= 0 {
		return nil, chk.Err("InitMesh: delta=%v must be positive", delta)
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	minZ := math.Inf(1)
	for _, t := range tris {
		for _, v := range [3]geomutil.Vec3{t.A, t.B, t.C} {
			if v.X < minX {
				minX = v.X
			}
			if v.X > maxX {
				maxX = v.X
			}
			if v.Y < minY {
				minY = v.Y
			}
			if v.Y > maxY {
				maxY = v.Y
			}
			if v.Z < minZ {
				minZ = v.Z
			}
		}
	}
	Sx := 2 * math.Max(math.Abs(minX), math.Abs(maxX))
	Sy := 2 * math.Max(math.Abs(minY), math.Abs(maxY))
	if Sx == 0 {
		Sx = delta
	}
	if Sy == 0 {
		Sy = delta
	}
	nx, ny, dx, dy := gridDims(Sx, Sy, delta)
	d := (dx + dy) / 2
	f := newDenseBaseField(nx, ny, d)
	floor := minZ + zBase
	for i := -nx; i <= nx; i++ {
		for j := -ny; j <= ny; j++ {
			f.set(i, j, floor)
		}
	}
	for _, t := range tris {
		lo := geomutil.Point2D{X: math.Min(t.A.X, math.Min(t.B.X, t.C.X)), Y: math.Min(t.A.Y, math.Min(t.B.Y, t.C.Y))}
		hi := geomutil.Point2D{X: math.Max(t.A.X, math.Max(t.B.X, t.C.X)), Y: math.Max(t.A.Y, math.Max(t.B.Y, t.C.Y))}
		i0, i1 := int(math.Floor(lo.X/d))-1, int(math.Ceil(hi.X/d))+1
		j0, j1 := int(math.Floor(lo.Y/d))-1, int(math.Ceil(hi.Y/d))+1
		if i0 < -nx {
			i0 = -nx
		}
		if i1 > nx {
			i1 = nx
		}
		if j0 < -ny {
			j0 = -ny
		}
		if j1 > ny {
			j1 = ny
		}
		for i := i0; i <= i1; i++ {
			for j := j0; j <= j1; j++ {
				cx, cy := float64(i)*d, float64(j)*d
				if !geomutil.InTriangle2D(cx, cy, t.A.X, t.A.Y, t.B.X, t.B.Y, t.C.X, t.C.Y) {
					continue
				}
				u, v, w, ok := geomutil.Barycentric2D(cx, cy, t.A.X, t.A.Y, t.B.X, t.B.Y, t.C.X, t.C.Y)
				if !ok {
					continue // degenerate triangle projection: skip
				}
				z := u*t.A.Z + v*t.B.Z + w*t.C.Z
				f.set(i, j, z)
			}
		}
	}
	return f, nil
}

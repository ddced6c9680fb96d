// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package terrain

import "github.com/jpmartin42/chrono-gpu-scm/collision"

// DefaultColormap is a blue-to-red linear ramp through white at the
// midpoint, the same three-stop scheme gofem's plotting helpers use for
// signed fields (negative/zero/positive), adapted here as the fallback
// passed to SetVisMesh when the embedder supplies none.
type DefaultColormap struct{}

// Get maps value, clamped to [vmin,vmax], to a color.
func (DefaultColormap) Get(value, vmin, vmax float64) collision.Color {
	if vmax <= vmin {
		return collision.Color{R: 1, G: 1, B: 1, A: 1}
	}
	t := (value - vmin) / (vmax - vmin)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	if t < 0.5 {
		u := t / 0.5
		return collision.Color{R: u, G: u, B: 1, A: 1}
	}
	u := (t - 0.5) / 0.5
	return collision.Color{R: 1, G: 1 - u, B: 1 - u, A: 1}
}

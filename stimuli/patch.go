package stimuli

import "math"

// Patch is a labelled region of floor.
type Patch interface {
	Contains(x, y float64) bool
	Label() string
}

// RectPatch is an axis-aligned rectangular floor patch. Edges are exclusive.
type RectPatch struct {
	XLeft, XRight float64
	YBottom, YTop float64
	Name          string
}

// Contains implements Patch.
func (p RectPatch) Contains(x, y float64) bool {
	return x > p.XLeft && x < p.XRight && y > p.YBottom && y < p.YTop
}

// Label implements Patch.
func (p RectPatch) Label() string { return p.Name }

// CirclePatch is a circular floor patch.
type CirclePatch struct {
	X, Y   float64
	Radius float64
	Name   string
}

// Contains implements Patch.
func (p CirclePatch) Contains(x, y float64) bool {
	return math.Hypot(x-p.X, y-p.Y) < p.Radius
}

// Label implements Patch.
func (p CirclePatch) Label() string { return p.Name }

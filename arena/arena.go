// Package arena confines bodies to (or excludes them from) a region and
// resolves overlaps between bodies.
//
// Every relocation goes through Body.Teleport so the moved body refreshes
// whatever it carries, and every correction registers a bump.
package arena

import "math"

// Body is a round mobile body.
type Body interface {
	Position() (x, y float64)
	Radius() float64
	Teleport(x, y float64)
	RegisterBump()
}

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	XLeft, XRight float64
	YBottom, YTop float64
}

// Arena is a rectangular wall. With KeepOut unset bodies are kept inside the
// rectangle; with KeepOut set they are kept outside it.
type Arena struct {
	initial Bounds
	Bounds
	keepOut bool
	bodies  []Body
}

// New creates a rectangular arena around bodies.
func New(b Bounds, keepOut bool, bodies ...Body) *Arena {
	return &Arena{initial: b, Bounds: b, keepOut: keepOut, bodies: bodies}
}

// Add registers another body.
func (a *Arena) Add(b Body) { a.bodies = append(a.bodies, b) }

// Move translates the arena.
func (a *Arena) Move(dx, dy float64) {
	a.XLeft += dx
	a.XRight += dx
	a.YBottom += dy
	a.YTop += dy
}

// Reset restores the construction bounds.
func (a *Arena) Reset() { a.Bounds = a.initial }

// Step corrects every body.
func (a *Arena) Step(dt float64) {
	for _, b := range a.bodies {
		if a.keepOut {
			a.exclude(b)
		} else {
			a.confine(b)
		}
	}
}

// confine clamps one axis at a time, bumping once per clamped axis.
func (a *Arena) confine(b Body) {
	r := b.Radius()
	x, y := b.Position()
	switch {
	case y+r > a.YTop:
		b.Teleport(x, a.YTop-r)
		b.RegisterBump()
	case y-r < a.YBottom:
		b.Teleport(x, a.YBottom+r)
		b.RegisterBump()
	}
	x, y = b.Position()
	switch {
	case x+r > a.XRight:
		b.Teleport(a.XRight-r, y)
		b.RegisterBump()
	case x-r < a.XLeft:
		b.Teleport(a.XLeft+r, y)
		b.RegisterBump()
	}
}

// exclude moves an overlapping body out along the single axis that needs the
// smallest displacement. Ties go to the first of left, right, bottom, top.
func (a *Arena) exclude(b Body) {
	r := b.Radius()
	x, y := b.Position()
	if x <= a.XLeft-r || x >= a.XRight+r || y <= a.YBottom-r || y >= a.YTop+r {
		return
	}
	exits := [4]struct {
		dist float64
		x, y float64
	}{
		{x - (a.XLeft - r), a.XLeft - r, y},
		{(a.XRight + r) - x, a.XRight + r, y},
		{y - (a.YBottom - r), x, a.YBottom - r},
		{(a.YTop + r) - y, x, a.YTop + r},
	}
	best := 0
	for i := 1; i < len(exits); i++ {
		if exits[i].dist < exits[best].dist {
			best = i
		}
	}
	b.Teleport(exits[best].x, exits[best].y)
	b.RegisterBump()
}

// Circular is a circular wall.
type Circular struct {
	initialX, initialY float64
	X, Y               float64
	Radius             float64
	initialRadius      float64
	keepOut            bool
	bodies             []Body
}

// NewCircular creates a circular arena centred on (x, y).
func NewCircular(x, y, radius float64, keepOut bool, bodies ...Body) *Circular {
	return &Circular{
		initialX: x, initialY: y, X: x, Y: y,
		Radius: radius, initialRadius: radius,
		keepOut: keepOut, bodies: bodies,
	}
}

// Add registers another body.
func (c *Circular) Add(b Body) { c.bodies = append(c.bodies, b) }

// Move translates the arena.
func (c *Circular) Move(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// Reset restores the construction centre and radius.
func (c *Circular) Reset() {
	c.X, c.Y, c.Radius = c.initialX, c.initialY, c.initialRadius
}

// Step corrects every body radially.
func (c *Circular) Step(dt float64) {
	for _, b := range c.bodies {
		r := b.Radius()
		x, y := b.Position()
		dx, dy := x-c.X, y-c.Y
		dist := math.Hypot(dx, dy)
		var length float64
		switch {
		case !c.keepOut && dist+r > c.Radius:
			length = c.Radius - r
		case c.keepOut && dist-r < c.Radius:
			length = c.Radius + r
		default:
			continue
		}
		angle := math.Atan2(dy, dx)
		b.Teleport(c.X+length*math.Cos(angle), c.Y+length*math.Sin(angle))
		b.RegisterBump()
	}
}

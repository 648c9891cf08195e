// Package entity provides the base pose-tracking type shared by every stepped
// component of the simulation.
package entity

// Pose is the construction-time configuration of an Entity.
// Reset always returns to this record, never to live state.
type Pose struct {
	X, Y        float64
	Theta       float64
	HasPosition bool
	HasHeading  bool
}

// At returns a pose with a position and no orientation.
func At(x, y float64) Pose {
	return Pose{X: x, Y: y, HasPosition: true}
}

// AtHeading returns a pose with both position and orientation.
func AtHeading(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: theta, HasPosition: true, HasHeading: true}
}

// Entity tracks an optional 2-D position and an optional orientation, each
// backed by a step-indexed history. For a tracked quantity,
// len(history) == completed steps + 1.
type Entity struct {
	initial Pose

	X, Y  float64
	Theta float64

	xs, ys []float64
	thetas []float64

	perturb func(*Entity)
	init    func(*Entity, int)
	initRun int
}

// New creates an entity from its initial pose.
func New(p Pose) Entity {
	e := Entity{initial: p}
	e.Reset()
	return e
}

// HasPosition reports whether the entity tracks a position.
func (e *Entity) HasPosition() bool { return e.initial.HasPosition }

// HasHeading reports whether the entity tracks an orientation.
func (e *Entity) HasHeading() bool { return e.initial.HasHeading }

// Position returns the current coordinates.
func (e *Entity) Position() (x, y float64) { return e.X, e.Y }

// Heading returns the current orientation.
func (e *Entity) Heading() float64 { return e.Theta }

// Initial returns the construction pose.
func (e *Entity) Initial() Pose { return e.initial }

// Record appends the current pose to the histories. Call once per step.
func (e *Entity) Record() {
	if e.initial.HasPosition {
		e.xs = append(e.xs, e.X)
		e.ys = append(e.ys, e.Y)
	}
	if e.initial.HasHeading {
		e.thetas = append(e.thetas, e.Theta)
	}
}

// Overwrite replaces the current pose and the newest history entry without
// appending. Used by relocation, which must not count as a step.
func (e *Entity) Overwrite(x, y float64) {
	if !e.initial.HasPosition {
		return
	}
	e.X, e.Y = x, y
	e.xs[len(e.xs)-1] = x
	e.ys[len(e.ys)-1] = y
}

// OverwriteHeading replaces the current orientation and its newest history entry.
func (e *Entity) OverwriteHeading(theta float64) {
	if !e.initial.HasHeading {
		return
	}
	e.Theta = theta
	e.thetas[len(e.thetas)-1] = theta
}

// Xs returns the x-coordinate history.
func (e *Entity) Xs() []float64 { return e.xs }

// Ys returns the y-coordinate history.
func (e *Entity) Ys() []float64 { return e.ys }

// Thetas returns the orientation history.
func (e *Entity) Thetas() []float64 { return e.thetas }

// Steps returns the number of completed steps.
func (e *Entity) Steps() int {
	switch {
	case e.initial.HasPosition:
		return len(e.xs) - 1
	case e.initial.HasHeading:
		return len(e.thetas) - 1
	}
	return 0
}

// Reset truncates the histories to the construction pose.
func (e *Entity) Reset() {
	p := e.initial
	e.xs, e.ys, e.thetas = nil, nil, nil
	e.X, e.Y, e.Theta = 0, 0, 0
	if p.HasPosition {
		e.X, e.Y = p.X, p.Y
		e.xs = []float64{p.X}
		e.ys = []float64{p.Y}
	}
	if p.HasHeading {
		e.Theta = p.Theta
		e.thetas = []float64{p.Theta}
	}
}

// SetPerturbFunc installs the hook run by Perturb.
func (e *Entity) SetPerturbFunc(fn func(*Entity)) { e.perturb = fn }

// SetInitFunc installs the hook run by InitConditions. The hook receives the
// number of times it has run before, so it can step through a list of
// starting conditions across runs.
func (e *Entity) SetInitFunc(fn func(e *Entity, run int)) { e.init = fn }

// Perturb runs the perturb hook, if any. Only valid between runs.
func (e *Entity) Perturb() {
	if e.perturb != nil {
		e.perturb(e)
	}
}

// InitConditions runs the init hook, if any, and advances its run index.
func (e *Entity) InitConditions() {
	if e.init != nil {
		e.init(e, e.initRun)
		e.initRun++
	}
}

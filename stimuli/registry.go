// Package stimuli holds the environment features agents can sense: lights
// (including pheromone trail markers), consumables and floor patches.
//
// Lights live in a Registry backed by an ECS world. Sensors and environment
// managers refer to them through stable handles and a label filter rather
// than by sharing slices, so removal is explicit: a removed handle reports
// !Valid and is skipped.
package stimuli

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// Handle identifies a light in a Registry.
type Handle = ecs.Entity

// Model selects how brightness falls off with distance.
type Model uint8

const (
	InverseSquare Model = iota // brightness / (d+1)^2
	Linear                     // max(brightness - gradient*d, 0)
	Binary                     // brightness at any distance
)

// ParseModel maps a config name to a Model. Unknown names fall back to
// InverseSquare.
func ParseModel(name string) Model {
	switch name {
	case "linear":
		return Linear
	case "binary":
		return Binary
	}
	return InverseSquare
}

// Position is a light's location.
type Position struct {
	X, Y float64
}

// Light is the emission state of a light source.
type Light struct {
	Theta      float64 // direction the emission cone points
	HalfSpread float64 // half-angle of the cone; >= Pi emits in all directions
	Brightness float64
	Gradient   float64
	Model      Model
	On         bool
	Colour     string
	// Quantity scales brightness. Ordinary lights keep 1; pheromones decay it to 0.
	Quantity float64
}

// Label is the group name sensors filter on.
type Label struct {
	Name string
}

// LightSpec describes a light to add to a registry.
type LightSpec struct {
	X, Y       float64
	Theta      float64
	Spread     float64 // full cone angle; 0 means 2*Pi
	Brightness float64
	Gradient   float64
	Model      Model
	Off        bool
	Colour     string
	Label      string
}

type record struct {
	pos   Position
	light Light
	label Label
}

// Registry owns every light in a simulation.
type Registry struct {
	world    *ecs.World
	mapper   *ecs.Map3[Position, Light, Label]
	filter   *ecs.Filter3[Position, Light, Label]
	posMap   *ecs.Map1[Position]
	lightMap *ecs.Map1[Light]
	labelMap *ecs.Map1[Label]

	initial map[Handle]record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	world := ecs.NewWorld()
	return &Registry{
		world:    world,
		mapper:   ecs.NewMap3[Position, Light, Label](world),
		filter:   ecs.NewFilter3[Position, Light, Label](world),
		posMap:   ecs.NewMap1[Position](world),
		lightMap: ecs.NewMap1[Light](world),
		labelMap: ecs.NewMap1[Label](world),
		initial:  make(map[Handle]record),
	}
}

// Add inserts a light and records its state for Reset.
func (r *Registry) Add(spec LightSpec) Handle {
	spread := spec.Spread
	if spread <= 0 {
		spread = 2 * math.Pi
	}
	colour := spec.Colour
	if colour == "" {
		colour = "yellow"
	}
	rec := record{
		pos: Position{X: spec.X, Y: spec.Y},
		light: Light{
			Theta:      spec.Theta,
			HalfSpread: spread / 2,
			Brightness: spec.Brightness,
			Gradient:   spec.Gradient,
			Model:      spec.Model,
			On:         !spec.Off,
			Colour:     colour,
			Quantity:   1,
		},
		label: Label{Name: spec.Label},
	}
	pos, light, label := rec.pos, rec.light, rec.label
	h := r.mapper.NewEntity(&pos, &light, &label)
	r.initial[h] = rec
	return h
}

// Remove deletes a light. Removing an invalid handle is a no-op.
func (r *Registry) Remove(h Handle) {
	if !r.world.Alive(h) {
		return
	}
	r.world.RemoveEntity(h)
	delete(r.initial, h)
}

// Valid reports whether h still refers to a light.
func (r *Registry) Valid(h Handle) bool {
	return r.world.Alive(h)
}

// Len returns the number of lights.
func (r *Registry) Len() int { return len(r.initial) }

// Light returns the mutable emission state of h, or nil if h is invalid.
func (r *Registry) Light(h Handle) *Light {
	if !r.world.Alive(h) {
		return nil
	}
	return r.lightMap.Get(h)
}

// Position returns the location of h.
func (r *Registry) Position(h Handle) (x, y float64, ok bool) {
	if !r.world.Alive(h) {
		return 0, 0, false
	}
	p := r.posMap.Get(h)
	return p.X, p.Y, true
}

// Label returns the label of h.
func (r *Registry) Label(h Handle) string {
	if !r.world.Alive(h) {
		return ""
	}
	return r.labelMap.Get(h).Name
}

// SetLabel relabels h.
func (r *Registry) SetLabel(h Handle, label string) {
	if !r.world.Alive(h) {
		return
	}
	r.labelMap.Get(h).Name = label
}

// SetOn switches h on or off.
func (r *Registry) SetOn(h Handle, on bool) {
	if l := r.Light(h); l != nil {
		l.On = on
	}
}

// Move places h at (x, y), keeping its orientation unchanged.
func (r *Registry) Move(h Handle, x, y float64) {
	if !r.world.Alive(h) {
		return
	}
	p := r.posMap.Get(h)
	p.X, p.Y = x, y
}

// Aim places h at (x, y) pointing at theta. Used for lights carried by agents.
func (r *Registry) Aim(h Handle, x, y, theta float64) {
	if !r.world.Alive(h) {
		return
	}
	p := r.posMap.Get(h)
	p.X, p.Y = x, y
	r.lightMap.Get(h).Theta = theta
}

// BrightnessOf returns the light received from h at (x, y).
func (r *Registry) BrightnessOf(h Handle, x, y float64) float64 {
	if !r.world.Alive(h) {
		return 0
	}
	p := r.posMap.Get(h)
	return r.lightMap.Get(h).BrightnessAt(*p, x, y)
}

// Each calls fn for every light whose label matches. An empty label matches
// all lights. fn must not add or remove lights.
func (r *Registry) Each(label string, fn func(h Handle, pos Position, l *Light)) {
	query := r.filter.Query()
	for query.Next() {
		pos, light, lbl := query.Get()
		if label != "" && lbl.Name != label {
			continue
		}
		fn(query.Entity(), *pos, light)
	}
}

// Handles returns the handles of every light whose label matches.
func (r *Registry) Handles(label string) []Handle {
	var out []Handle
	r.Each(label, func(h Handle, _ Position, _ *Light) {
		out = append(out, h)
	})
	return out
}

// Reset restores every light to the state recorded when it was added.
func (r *Registry) Reset() {
	for h, rec := range r.initial {
		*r.posMap.Get(h) = rec.pos
		*r.lightMap.Get(h) = rec.light
		*r.labelMap.Get(h) = rec.label
	}
}

// BrightnessAt returns the light received at (x, y) from a source at pos.
func (l *Light) BrightnessAt(pos Position, x, y float64) float64 {
	if !l.On {
		return 0
	}
	if l.HalfSpread < math.Pi {
		toReceiver := math.Atan2(y-pos.Y, x-pos.X)
		if math.Abs(AngleDifference(toReceiver, l.Theta)) >= l.HalfSpread {
			return 0
		}
	}
	d := math.Hypot(x-pos.X, y-pos.Y)
	var b float64
	switch l.Model {
	case Linear:
		b = math.Max(l.Brightness-l.Gradient*d, 0)
	case Binary:
		b = l.Brightness
	default:
		b = l.Brightness / ((d + 1) * (d + 1))
	}
	return b * l.Quantity
}

// AngleDifference returns a - b wrapped to [-Pi, Pi].
func AngleDifference(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

package stimuli

import (
	"github.com/pthm-cable/sandbox/entity"
	"github.com/pthm-cable/sandbox/telemetry"
)

// ConsumableConfig is the construction record of a Consumable.
type ConsumableConfig struct {
	X, Y         float64
	Radius       float64 // reach within which agents consume it
	Quantity     float64 // signed yield
	RecoveryTime float64
	Colour       string // also the label of its light
}

// DefaultConsumable returns the usual settings at (x, y).
func DefaultConsumable(x, y float64) ConsumableConfig {
	return ConsumableConfig{X: x, Y: y, Radius: 0.5, Quantity: 10, RecoveryTime: 10, Colour: "green"}
}

// Consumable is a food or hazard item. Consuming it yields its quantity once
// and hides its light until the recovery time has elapsed.
type Consumable struct {
	entity.Entity
	cfg   ConsumableConfig
	reg   *Registry
	light Handle

	depleted  bool
	depleteds []bool
	timer     float64
}

// NewConsumable creates a consumable and adds its light to reg.
func NewConsumable(reg *Registry, cfg ConsumableConfig) *Consumable {
	if cfg.Colour == "" {
		cfg.Colour = "green"
	}
	c := &Consumable{
		Entity: entity.New(entity.At(cfg.X, cfg.Y)),
		cfg:    cfg,
		reg:    reg,
	}
	c.light = reg.Add(LightSpec{X: cfg.X, Y: cfg.Y, Brightness: 1, Colour: cfg.Colour, Label: cfg.Colour})
	c.depleteds = []bool{false}
	return c
}

// Radius returns the consumption reach.
func (c *Consumable) Radius() float64 { return c.cfg.Radius }

// Depleted reports whether the item is waiting to recover.
func (c *Consumable) Depleted() bool { return c.depleted }

// Light returns the handle of the item's light.
func (c *Consumable) Light() Handle { return c.light }

// Consume returns the item's quantity and depletes it. A depleted item
// returns 0.
func (c *Consumable) Consume() float64 {
	if c.depleted {
		return 0
	}
	c.depleted = true
	c.timer = 0
	c.reg.SetOn(c.light, false)
	return c.cfg.Quantity
}

// Step advances the recovery timer.
func (c *Consumable) Step(dt float64) {
	c.Record()
	if c.depleted {
		if c.timer >= c.cfg.RecoveryTime {
			c.depleted = false
			c.reg.SetOn(c.light, true)
		} else {
			c.timer += dt
		}
	}
	c.depleteds = append(c.depleteds, c.depleted)
}

// Reset restores the item. The registry restores the light itself.
func (c *Consumable) Reset() {
	c.Entity.Reset()
	c.depleted = false
	c.depleteds = []bool{false}
	c.timer = 0
	c.reg.SetOn(c.light, true)
}

// Series returns the consumable histories.
func (c *Consumable) Series() telemetry.Series {
	s := telemetry.Series{}
	s.Put("x", c.Xs())
	s.Put("y", c.Ys())
	s.PutBools("depleted", c.depleteds)
	return s
}

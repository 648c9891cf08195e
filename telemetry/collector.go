package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int
	dt                  float64

	// Current window tracking
	windowStartTick int

	deaths         int
	consumed       int
	consumedEnergy float64
	disturbances   int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window lasts
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: windowTicks,
		dt:                  dt,
	}
}

// Record counts an event in the current window.
func (c *Collector) Record(e Event) {
	switch e.Type {
	case EventDeath:
		c.deaths++
	case EventConsume:
		c.consumed++
		c.consumedEnergy += e.Amount
	case EventDisturbanceOn, EventDisturbanceOff:
		c.disturbances++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// energies holds the energy of every agent, alive or not, at currentTick.
func (c *Collector) Flush(run, currentTick, alive int, energies []float64) WindowStats {
	e := Summarize(energies)
	stats := WindowStats{
		Run:             run,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Alive:  alive,
		Deaths: c.deaths,

		Consumed:       c.consumed,
		ConsumedEnergy: c.consumedEnergy,
		Disturbances:   c.disturbances,

		EnergyMean: e.Mean,
		EnergyStd:  e.Std,
		EnergyP10:  e.P10,
		EnergyP50:  e.P50,
		EnergyP90:  e.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.deaths = 0
	c.consumed = 0
	c.consumedEnergy = 0
	c.disturbances = 0

	return stats
}

// Reset starts a new run at tick 0.
func (c *Collector) Reset() {
	c.windowStartTick = 0
	c.deaths = 0
	c.consumed = 0
	c.consumedEnergy = 0
	c.disturbances = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}

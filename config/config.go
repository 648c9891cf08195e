// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds a complete scenario.
type Config struct {
	Simulation    SimulationConfig     `yaml:"simulation"`
	Arenas        []ArenaConfig        `yaml:"arenas"`
	Collisions    CollisionConfig      `yaml:"collisions"`
	Robots        []RobotConfig        `yaml:"robots"`
	Lights        []LightConfig        `yaml:"lights"`
	Consumables   []ConsumableConfig   `yaml:"consumables"`
	Patches       []PatchConfig        `yaml:"patches"`
	Pheromones    PheromoneConfig      `yaml:"pheromones"`
	LightManagers []LightManagerConfig `yaml:"light_managers"`
	Disturbances  []DisturbanceConfig  `yaml:"disturbances"`
	Telemetry     TelemetryConfig      `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the clock and run settings.
type SimulationConfig struct {
	DT       float64  `yaml:"dt"`
	Duration float64  `yaml:"duration"` // simulated time per run
	Runs     int      `yaml:"runs"`
	Seed     uint64   `yaml:"seed"`  // base for every component seed (0 = time-based, set by the CLI)
	Order    []string `yaml:"order"` // step order of component groups (empty = default)
}

// ArenaConfig describes one boundary. Shape is "rectangle" or "circle".
type ArenaConfig struct {
	Shape   string  `yaml:"shape"`
	KeepOut bool    `yaml:"keep_out"` // obstacle instead of enclosure
	XLeft   float64 `yaml:"x_left"`
	XRight  float64 `yaml:"x_right"`
	YBottom float64 `yaml:"y_bottom"`
	YTop    float64 `yaml:"y_top"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Radius  float64 `yaml:"radius"`
}

// CollisionConfig enables pairwise separation of robots.
type CollisionConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NoiseConfig selects a noise source. Type is one of "none", "white",
// "gaussian", "brown", "spike", "maker" or "simplex".
type NoiseConfig struct {
	Type      string  `yaml:"type"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Mean      float64 `yaml:"mean"`
	Sigma     float64 `yaml:"sigma"`
	Step      float64 `yaml:"step"`      // brown walk step
	Prob      float64 `yaml:"prob"`      // spike probability
	Pos       float64 `yaml:"pos"`       // spike positive magnitude
	Neg       float64 `yaml:"neg"`       // spike negative magnitude
	Amplitude float64 `yaml:"amplitude"` // simplex
	Frequency float64 `yaml:"frequency"` // simplex
}

// MotorConfig configures one wheel.
type MotorConfig struct {
	MaxSpeed float64     `yaml:"max_speed"`
	Inertia  float64     `yaml:"inertia"`
	Reversed bool        `yaml:"reversed"`
	Noise    NoiseConfig `yaml:"noise"`
	// SpeedNoise is added to the wheel speed sensor reading.
	SpeedNoise NoiseConfig `yaml:"speed_noise"`
}

// EnergyConfig holds robot energy economics.
type EnergyConfig struct {
	Initial       float64     `yaml:"initial"`
	Max           float64     `yaml:"max"`
	ActionCost    float64     `yaml:"action_cost"`
	MetabolicCost float64     `yaml:"metabolic_cost"`
	Noise         NoiseConfig `yaml:"noise"`
}

// SensorConfig describes one user sensor. Type is "light", "compass" or
// "floor_patch". A nil Angle mounts the sensor at the body centre.
type SensorConfig struct {
	Type     string      `yaml:"type"`
	Name     string      `yaml:"name"`
	Angle    *float64    `yaml:"angle"`
	Label    string      `yaml:"label"`
	FOV      float64     `yaml:"fov"` // full width in radians (0 = all round)
	Delay    int         `yaml:"delay"`
	Disabled bool        `yaml:"disabled"`
	Noise    NoiseConfig `yaml:"noise"`
}

// AdaptConfig enables parameter search inside a controller. Mode "random"
// redraws every parameter from [Low, High]; "mutate" adds Gaussian noise of
// Sigma to the current parameters.
type AdaptConfig struct {
	Mode     string  `yaml:"mode"`
	Interval float64 `yaml:"interval"`
	Low      float64 `yaml:"low"`
	High     float64 `yaml:"high"`
	Sigma    float64 `yaml:"sigma"`
	Disabled bool    `yaml:"disabled"`
}

// ControllerConfig selects the decision block. Type is "braitenberg",
// "fixed", "heading" or "network".
type ControllerConfig struct {
	Type              string        `yaml:"type"`
	Params            []float64     `yaml:"params"`
	Noise             []NoiseConfig `yaml:"noise"`
	Adapt             *AdaptConfig  `yaml:"adapt"`
	KeepParamsOnReset bool          `yaml:"keep_params_on_reset"`
	// Sensor is the index of the first sensor when the step function reads
	// fixed positions (braitenberg: left, right; heading: compass).
	Sensor int `yaml:"sensor"`
	// Hidden is the hidden layer size of a network controller, which reads
	// every sensor. Empty params are drawn at random from the seed.
	Hidden int `yaml:"hidden"`
}

// RadioConfig attaches a radio. All robots with radios are peers.
type RadioConfig struct {
	TransmitRange float64 `yaml:"transmit_range"`
	ReceiveRange  float64 `yaml:"receive_range"`
	Disabled      bool    `yaml:"disabled"`
}

// PerturbConfig jitters a robot's pose before each run.
type PerturbConfig struct {
	Position float64 `yaml:"position"` // uniform offset bound per axis
	Heading  float64 `yaml:"heading"`  // uniform offset bound in radians
}

// RobotConfig describes one differential-drive robot.
type RobotConfig struct {
	Name       string           `yaml:"name"`
	X          float64          `yaml:"x"`
	Y          float64          `yaml:"y"`
	Theta      float64          `yaml:"theta"`
	Radius     float64          `yaml:"radius"`
	Energy     EnergyConfig     `yaml:"energy"`
	Left       MotorConfig      `yaml:"left"`
	Right      MotorConfig      `yaml:"right"`
	BumpFlip   float64          `yaml:"bump_flip"`
	Sensors    []SensorConfig   `yaml:"sensors"`
	Controller ControllerConfig `yaml:"controller"`
	Radio      *RadioConfig     `yaml:"radio"`
	Light      *LightConfig     `yaml:"light"` // carried light
	Perturb    PerturbConfig    `yaml:"perturb"`
	// Starts cycles the start pose through a list across runs.
	Starts         [][3]float64 `yaml:"starts"`
	DropPheromones bool         `yaml:"drop_pheromones"`
	DropInterval   float64      `yaml:"drop_interval"`
}

// LightConfig describes a light source. Model is "inverse_square",
// "linear" or "binary".
type LightConfig struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Theta      float64 `yaml:"theta"`
	Spread     float64 `yaml:"spread"`
	Brightness float64 `yaml:"brightness"`
	Gradient   float64 `yaml:"gradient"`
	Model      string  `yaml:"model"`
	Off        bool    `yaml:"off"`
	Colour     string  `yaml:"colour"`
	Label      string  `yaml:"label"`
}

// ConsumableConfig describes a food item.
type ConsumableConfig struct {
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Radius       float64 `yaml:"radius"`
	Quantity     float64 `yaml:"quantity"`
	RecoveryTime float64 `yaml:"recovery_time"`
	Colour       string  `yaml:"colour"`
}

// PatchConfig describes a floor patch. Shape is "rectangle" or "circle".
type PatchConfig struct {
	Shape   string  `yaml:"shape"`
	Label   string  `yaml:"label"`
	XLeft   float64 `yaml:"x_left"`
	XRight  float64 `yaml:"x_right"`
	YBottom float64 `yaml:"y_bottom"`
	YTop    float64 `yaml:"y_top"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Radius  float64 `yaml:"radius"`
}

// PheromoneConfig holds trail marker settings.
type PheromoneConfig struct {
	DecayRate  float64 `yaml:"decay_rate"`
	Brightness float64 `yaml:"brightness"`
	Gradient   float64 `yaml:"gradient"`
	Model      string  `yaml:"model"`
}

// LightManagerConfig describes a manager over the lights with Label. Type is
// "shy", "merry_go_round" or "fading".
type LightManagerConfig struct {
	Type   string  `yaml:"type"`
	Label  string  `yaml:"label"`
	Radius float64 `yaml:"radius"` // shy
	Delay  float64 `yaml:"delay"`  // shy
	Period float64 `yaml:"period"` // merry_go_round
	First  int     `yaml:"first"`  // merry_go_round
	Rate   float64 `yaml:"rate"`   // fading
}

// DisturbanceConfig describes a scheduled disturbance. Type is one of
// "motor_noise", "moving_sensors", "sensory_inversion", "parameter" or
// "light_switcher".
type DisturbanceConfig struct {
	Type    string      `yaml:"type"`
	Name    string      `yaml:"name"`
	Robot   string      `yaml:"robot"`
	Motor   string      `yaml:"motor"` // "left" or "right"
	Noise   NoiseConfig `yaml:"noise"`
	Sensors []int       `yaml:"sensors"`  // full sensor-list indices
	MaxMove float64     `yaml:"max_move"` // moving_sensors jitter bound (0 = default)
	Labels  []string    `yaml:"labels"`   // light_switcher pair
	Start   []float64   `yaml:"start"`
	Stop    []float64   `yaml:"stop"`
	Enabled bool        `yaml:"enabled"`
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	RecordInterval int  `yaml:"record_interval"` // ticks between CSV rows
	WriteSeries    bool `yaml:"write_series"`    // dump every history at the end of each run
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Ticks      int            // Simulation.Duration / Simulation.DT
	RobotIndex map[string]int // name -> index into Robots
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default scenario.
func Defaults() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse overlays data on the embedded defaults, validates the result and
// computes derived values. Lists in data replace the default lists.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// applyDefaults fills per-item zero values the defaults file cannot reach,
// since user lists replace the default lists.
func (c *Config) applyDefaults() {
	if c.Simulation.Runs <= 0 {
		c.Simulation.Runs = 1
	}
	for i := range c.Robots {
		r := &c.Robots[i]
		if r.Name == "" {
			r.Name = fmt.Sprintf("robot_%d", i)
		}
		if r.Radius == 0 {
			r.Radius = 1
		}
		if r.Controller.Type == "" {
			r.Controller.Type = "braitenberg"
		}
	}
	for i := range c.Lights {
		if c.Lights[i].Brightness == 0 {
			c.Lights[i].Brightness = 1
		}
	}
	if c.Telemetry.RecordInterval <= 0 {
		c.Telemetry.RecordInterval = 1
	}
}

// Validate reports every configuration error, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Simulation.DT <= 0 {
		bad("simulation.dt must be > 0, got %v", c.Simulation.DT)
	}
	if c.Simulation.Duration < 0 {
		bad("simulation.duration must be >= 0, got %v", c.Simulation.Duration)
	}
	for _, o := range c.Simulation.Order {
		if !isOneOf(o, "arenas", "agents", "consumables", "pheromones", "light_managers", "disturbances") {
			bad("simulation.order: unknown group %q", o)
		}
	}
	for i, a := range c.Arenas {
		switch a.Shape {
		case "rectangle":
			if a.XLeft >= a.XRight || a.YBottom >= a.YTop {
				bad("arenas[%d]: empty rectangle", i)
			}
		case "circle":
			if a.Radius <= 0 {
				bad("arenas[%d]: radius must be > 0", i)
			}
		default:
			bad("arenas[%d]: unknown shape %q", i, a.Shape)
		}
	}

	names := make(map[string]bool, len(c.Robots))
	for i, r := range c.Robots {
		if names[r.Name] {
			bad("robots[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
		for j, s := range r.Sensors {
			if !isOneOf(s.Type, "light", "compass", "floor_patch") {
				bad("robots[%d].sensors[%d]: unknown type %q", i, j, s.Type)
			}
			if s.Delay < 0 {
				bad("robots[%d].sensors[%d]: delay must be >= 0", i, j)
			}
			errs = append(errs, c.validateNoise(fmt.Sprintf("robots[%d].sensors[%d].noise", i, j), s.Noise)...)
		}
		for _, n := range []struct {
			path string
			cfg  NoiseConfig
		}{
			{"energy.noise", r.Energy.Noise},
			{"left.noise", r.Left.Noise},
			{"right.noise", r.Right.Noise},
			{"left.speed_noise", r.Left.SpeedNoise},
			{"right.speed_noise", r.Right.SpeedNoise},
		} {
			errs = append(errs, c.validateNoise(fmt.Sprintf("robots[%d].%s", i, n.path), n.cfg)...)
		}
		errs = append(errs, validateController(i, r)...)
		if r.Light != nil && r.Light.Model != "" && !isOneOf(r.Light.Model, "inverse_square", "linear", "binary") {
			bad("robots[%d].light: unknown model %q", i, r.Light.Model)
		}
	}

	for i, l := range c.Lights {
		if l.Model != "" && !isOneOf(l.Model, "inverse_square", "linear", "binary") {
			bad("lights[%d]: unknown model %q", i, l.Model)
		}
	}
	for i, p := range c.Patches {
		if !isOneOf(p.Shape, "rectangle", "circle") {
			bad("patches[%d]: unknown shape %q", i, p.Shape)
		}
	}
	for i, m := range c.LightManagers {
		switch m.Type {
		case "shy", "fading":
		case "merry_go_round":
			if m.Period <= 0 {
				bad("light_managers[%d]: period must be > 0", i)
			}
		default:
			bad("light_managers[%d]: unknown type %q", i, m.Type)
		}
	}
	for i, d := range c.Disturbances {
		errs = append(errs, c.validateDisturbance(i, d, names)...)
	}
	return errors.Join(errs...)
}

// fixedSensors precede the configured sensors on every robot: energy, bump,
// left motor speed, right motor speed.
const fixedSensors = 4

// NetworkParams returns the parameter count of a network controller with the
// given input and hidden layer sizes.
func NetworkParams(inputs, hidden int) int {
	return hidden*inputs + 3*hidden + 2
}

func validateController(i int, r RobotConfig) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: robots[%d].controller: "+format, append([]any{ErrInvalid, i}, args...)...))
	}
	sensors := fixedSensors + len(r.Sensors)
	want := map[string]int{"braitenberg": 6, "fixed": 2, "heading": 5, "network": NetworkParams(sensors, r.Controller.Hidden)}
	n, ok := want[r.Controller.Type]
	if !ok {
		bad("unknown type %q", r.Controller.Type)
		return errs
	}
	switch {
	case r.Controller.Type == "network" && r.Controller.Hidden <= 0:
		bad("network needs hidden > 0")
	case r.Controller.Type == "network" && len(r.Controller.Params) == 0:
	case len(r.Controller.Params) != n:
		bad("%s needs %d params, got %d", r.Controller.Type, n, len(r.Controller.Params))
	}
	reads := map[string]int{"braitenberg": 2, "heading": 1}[r.Controller.Type]
	if reads > 0 && (r.Controller.Sensor < 0 || r.Controller.Sensor+reads > sensors) {
		bad("sensor %d out of range for %d sensors", r.Controller.Sensor, sensors)
	}
	if ad := r.Controller.Adapt; ad != nil {
		switch ad.Mode {
		case "", "random":
			if ad.Low > ad.High {
				bad("adapt.low > adapt.high")
			}
		case "mutate":
			if ad.Sigma <= 0 {
				bad("adapt.sigma must be > 0")
			}
		default:
			bad("unknown adapt mode %q", ad.Mode)
		}
	}
	return errs
}

func (c *Config) validateDisturbance(i int, d DisturbanceConfig, robots map[string]bool) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: disturbances[%d]: "+format, append([]any{ErrInvalid, i}, args...)...))
	}
	needsRobot := d.Type != "light_switcher"
	switch d.Type {
	case "motor_noise":
		if !isOneOf(d.Motor, "left", "right") {
			bad("motor must be left or right, got %q", d.Motor)
		}
		if isOneOf(d.Noise.Type, "", "none") {
			bad("motor_noise needs a noise type")
		} else {
			errs = append(errs, c.validateNoise(fmt.Sprintf("disturbances[%d].noise", i), d.Noise)...)
		}
	case "moving_sensors":
	case "sensory_inversion":
		if len(d.Sensors) != 2 {
			bad("sensory_inversion needs 2 sensors, got %d", len(d.Sensors))
		}
	case "parameter":
	case "light_switcher":
		if len(d.Labels) != 2 {
			bad("light_switcher needs 2 labels, got %d", len(d.Labels))
		}
	default:
		bad("unknown type %q", d.Type)
		return errs
	}
	if needsRobot && !robots[d.Robot] {
		bad("unknown robot %q", d.Robot)
	}
	if needsRobot && robots[d.Robot] {
		for _, r := range c.Robots {
			if r.Name != d.Robot {
				continue
			}
			for _, s := range d.Sensors {
				if s < 0 || s >= fixedSensors+len(r.Sensors) {
					bad("sensor %d out of range", s)
				}
			}
		}
	}
	return errs
}

func (c *Config) validateNoise(path string, n NoiseConfig) []error {
	if !isOneOf(n.Type, "", "none", "white", "gaussian", "brown", "spike", "maker", "simplex") {
		return []error{fmt.Errorf("%w: %s: unknown type %q", ErrInvalid, path, n.Type)}
	}
	if n.Type == "spike" && (n.Prob < 0 || n.Prob > 1) {
		return []error{fmt.Errorf("%w: %s: prob must be in [0, 1]", ErrInvalid, path)}
	}
	return nil
}

func isOneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Ticks = int(math.Round(c.Simulation.Duration / c.Simulation.DT))
	c.Derived.RobotIndex = make(map[string]int, len(c.Robots))
	for i, r := range c.Robots {
		c.Derived.RobotIndex[r.Name] = i
	}
}

// Clone returns a deep copy, re-validated and with derived values recomputed.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return Parse(data)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

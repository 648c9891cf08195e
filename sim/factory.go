package sim

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/sandbox/agent"
	"github.com/pthm-cable/sandbox/arena"
	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/controller"
	"github.com/pthm-cable/sandbox/disturbance"
	"github.com/pthm-cable/sandbox/entity"
	"github.com/pthm-cable/sandbox/motor"
	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/pheromone"
	"github.com/pthm-cable/sandbox/radio"
	"github.com/pthm-cable/sandbox/sensor"
	"github.com/pthm-cable/sandbox/stimuli"
)

// seeds hands out a reproducible stream of component seeds.
type seeds struct {
	rng *rand.Rand
}

func newSeeds(base uint64) *seeds {
	return &seeds{rng: rand.New(rand.NewPCG(base, base^0x9e3779b97f4a7c15))}
}

func (s *seeds) next() uint64 { return s.rng.Uint64() }

// builder carries the shared state while a scenario is assembled.
type builder struct {
	cfg     *config.Config
	sim     *Simulation
	reg     *stimuli.Registry
	seeds   *seeds
	patches []stimuli.Patch
	food    []agent.Consumable
	trails  *pheromone.Manager
	robots  []*agent.Robot
}

// Build assembles a simulation from a validated config. opts.Order and
// opts.WindowTicks fall back to the config when unset.
func Build(cfg *config.Config, opts Options) (*Simulation, error) {
	if len(opts.Order) == 0 {
		opts.Order = cfg.Simulation.Order
	}
	if opts.WindowTicks <= 0 {
		opts.WindowTicks = cfg.Telemetry.RecordInterval
	}
	opts.WriteSeries = opts.WriteSeries || cfg.Telemetry.WriteSeries

	reg := stimuli.NewRegistry()
	s, err := New(cfg.Simulation.DT, cfg.Derived.Ticks, reg, opts)
	if err != nil {
		return nil, err
	}
	b := &builder{cfg: cfg, sim: s, reg: reg, seeds: newSeeds(cfg.Simulation.Seed)}

	b.buildLights()
	b.buildPatches()
	b.buildPheromones()
	b.buildConsumables()
	if err := b.buildRobots(); err != nil {
		return nil, err
	}
	b.buildArenas()
	if err := b.buildLightManagers(); err != nil {
		return nil, err
	}
	if err := b.buildDisturbances(); err != nil {
		return nil, err
	}
	s.logger.Debug("simulation built",
		"robots", len(s.agents),
		"lights", reg.Len(),
		"consumables", len(s.consumables),
		"disturbances", len(s.disturbances),
		"ticks", s.ticks,
	)
	return s, nil
}

func lightSpec(l config.LightConfig) stimuli.LightSpec {
	return stimuli.LightSpec{
		X:          l.X,
		Y:          l.Y,
		Theta:      l.Theta,
		Spread:     l.Spread,
		Brightness: l.Brightness,
		Gradient:   l.Gradient,
		Model:      stimuli.ParseModel(l.Model),
		Off:        l.Off,
		Colour:     l.Colour,
		Label:      l.Label,
	}
}

func (b *builder) buildLights() {
	targets := make([]stimuli.Handle, 0, len(b.cfg.Lights))
	for _, l := range b.cfg.Lights {
		targets = append(targets, b.reg.Add(lightSpec(l)))
	}
	b.sim.SetTargets(targets...)
}

func (b *builder) buildPatches() {
	for _, p := range b.cfg.Patches {
		switch p.Shape {
		case "circle":
			b.patches = append(b.patches, stimuli.CirclePatch{X: p.X, Y: p.Y, Radius: p.Radius, Name: p.Label})
		default:
			b.patches = append(b.patches, stimuli.RectPatch{
				XLeft: p.XLeft, XRight: p.XRight, YBottom: p.YBottom, YTop: p.YTop, Name: p.Label,
			})
		}
	}
}

func (b *builder) buildPheromones() {
	for _, r := range b.cfg.Robots {
		if r.DropPheromones {
			pc := b.cfg.Pheromones
			b.trails = pheromone.New(b.reg, pheromone.Config{
				DecayRate:  pc.DecayRate,
				Brightness: pc.Brightness,
				Gradient:   pc.Gradient,
				Model:      stimuli.ParseModel(pc.Model),
			})
			b.sim.SetPheromones(b.trails)
			return
		}
	}
}

func (b *builder) buildConsumables() {
	for i, c := range b.cfg.Consumables {
		item := stimuli.NewConsumable(b.reg, stimuli.ConsumableConfig{
			X:            c.X,
			Y:            c.Y,
			Radius:       c.Radius,
			Quantity:     c.Quantity,
			RecoveryTime: c.RecoveryTime,
			Colour:       c.Colour,
		})
		b.food = append(b.food, b.sim.AddConsumable(item, fmt.Sprintf("food_%d", i)))
	}
}

// noiseSource returns nil for an empty or "none" type.
func (b *builder) noiseSource(n config.NoiseConfig) noise.Source {
	seed := b.seeds.next()
	switch n.Type {
	case "white":
		return noise.NewWhite(n.Min, n.Max, seed)
	case "gaussian":
		return noise.NewGaussian(n.Mean, n.Sigma, seed)
	case "brown":
		return noise.NewBrown(n.Step, seed)
	case "spike":
		return noise.NewSpike(n.Prob, n.Pos, n.Neg, seed)
	case "maker":
		return noise.Maker([2]float64{n.Max, n.Min}, n.Step, [3]float64{n.Prob, n.Pos, n.Neg}, seed)
	case "simplex":
		return noise.NewSimplex(n.Amplitude, n.Frequency, int64(seed>>1))
	}
	return nil
}

func (b *builder) buildRobots() error {
	var radios []*radio.Radio
	for _, rc := range b.cfg.Robots {
		a, robot, err := b.buildRobot(rc)
		if err != nil {
			return fmt.Errorf("sim: robot %q: %w", rc.Name, err)
		}
		b.sim.AddAgent(a)
		b.robots = append(b.robots, robot)
		if r := robot.Radio(); r != nil {
			radios = append(radios, r)
		}
	}
	radio.Connect(radios...)
	return nil
}

func (b *builder) buildRobot(rc config.RobotConfig) (*agent.Agent, *agent.Robot, error) {
	sensors := make([]sensor.Sensor, 0, len(rc.Sensors))
	angles := make([]float64, 0, len(rc.Sensors))
	for _, sc := range rc.Sensors {
		s, err := b.buildSensor(sc)
		if err != nil {
			return nil, nil, err
		}
		sensors = append(sensors, s)
		if sc.Angle == nil {
			angles = append(angles, agent.Centred)
		} else {
			angles = append(angles, *sc.Angle)
		}
	}

	ctrl, err := b.buildController(rc.Controller, agent.FixedSensors+len(sensors))
	if err != nil {
		return nil, nil, err
	}

	var rad *radio.Radio
	if rc.Radio != nil {
		rad = radio.New(rc.X, rc.Y, radio.Config{
			TransmitRange: rc.Radio.TransmitRange,
			ReceiveRange:  rc.Radio.ReceiveRange,
			Disabled:      rc.Radio.Disabled,
			Seed:          b.seeds.next(),
		})
	}

	robot, err := agent.NewRobot(agent.RobotConfig{
		Left:            motorConfig(rc.Left),
		Right:           motorConfig(rc.Right),
		LeftNoise:       b.noiseSource(rc.Left.Noise),
		RightNoise:      b.noiseSource(rc.Right.Noise),
		LeftSpeedNoise:  b.noiseSource(rc.Left.SpeedNoise),
		RightSpeedNoise: b.noiseSource(rc.Right.SpeedNoise),
		Sensors:         sensors,
		SensorAngles:    angles,
		Controller:      ctrl,
		Radio:           rad,
	})
	if err != nil {
		return nil, nil, err
	}

	ac := agent.Config{
		Name:          rc.Name,
		X:             rc.X,
		Y:             rc.Y,
		Theta:         rc.Theta,
		Radius:        rc.Radius,
		InitialEnergy: rc.Energy.Initial,
		MaxEnergy:     rc.Energy.Max,
		ActionCost:    rc.Energy.ActionCost,
		MetabolicCost: rc.Energy.MetabolicCost,
		EnergyNoise:   b.noiseSource(rc.Energy.Noise),
		BumpFlip:      rc.BumpFlip,
		BumpSeed:      b.seeds.next(),
		DropInterval:  rc.DropInterval,
		Consumables:   b.food,
	}
	if rc.DropPheromones && b.trails != nil {
		ac.Pheromones = b.trails
	}
	if rc.Light != nil {
		spec := lightSpec(*rc.Light)
		if spec.Brightness == 0 {
			spec.Brightness = 1
		}
		ac.Lights, ac.Light = b.reg, &spec
	}
	a, err := agent.New(ac, robot)
	if err != nil {
		return nil, nil, err
	}
	b.installHooks(a, rc)
	return a, robot, nil
}

func motorConfig(m config.MotorConfig) motor.Config {
	return motor.Config{MaxSpeed: m.MaxSpeed, Inertia: m.Inertia, Reversed: m.Reversed}
}

func (b *builder) buildSensor(sc config.SensorConfig) (sensor.Sensor, error) {
	opts := sensor.Options{
		Name:       sc.Name,
		Noise:      b.noiseSource(sc.Noise),
		DelaySteps: sc.Delay,
		Disabled:   sc.Disabled,
	}
	switch sc.Type {
	case "light":
		return sensor.NewLight(b.reg, sc.Label, sensor.FOV{Width: sc.FOV}, opts)
	case "compass":
		return sensor.NewCompass(opts)
	case "floor_patch":
		return sensor.NewFloorPatch(b.patches, sc.Label, opts)
	}
	return nil, fmt.Errorf("unknown sensor type %q", sc.Type)
}

func (b *builder) buildController(cc config.ControllerConfig, inputs int) (*controller.Controller, error) {
	cfg := controller.Config{
		Inputs:            inputs,
		Commands:          2,
		Params:            cc.Params,
		KeepParamsOnReset: cc.KeepParamsOnReset,
	}
	switch cc.Type {
	case "braitenberg":
		cfg.Step = controller.Braitenberg(cc.Sensor)
	case "fixed":
		cfg.Step = controller.Fixed()
	case "heading":
		cfg.Step = controller.HeadingPID(cc.Sensor)
		cfg.State = []float64{0, 0}
	case "network":
		cfg.Step = controller.Network(inputs, cc.Hidden)
		if len(cfg.Params) == 0 {
			cfg.Params = controller.XavierParams(inputs, cc.Hidden, b.seeds.next())
		}
	default:
		return nil, fmt.Errorf("unknown controller type %q", cc.Type)
	}
	for _, n := range cc.Noise {
		cfg.Noise = append(cfg.Noise, b.noiseSource(n))
	}
	if ad := cc.Adapt; ad != nil {
		if ad.Mode == "mutate" {
			cfg.Adapt = controller.Mutate(ad.Sigma, b.seeds.next())
		} else {
			cfg.Adapt = controller.RandomParams(len(cfg.Params), ad.Low, ad.High, b.seeds.next())
		}
		cfg.TestInterval = ad.Interval
		cfg.AdaptDisabled = ad.Disabled
	}
	return controller.New(cfg)
}

// installHooks sets the start-pose cycle and the between-run jitter.
func (b *builder) installHooks(a *agent.Agent, rc config.RobotConfig) {
	if starts := rc.Starts; len(starts) > 0 {
		a.SetInitFunc(func(e *entity.Entity, run int) {
			p := starts[run%len(starts)]
			e.Overwrite(p[0], p[1])
			e.OverwriteHeading(p[2])
		})
	}
	pc := rc.Perturb
	if pc.Position <= 0 && pc.Heading <= 0 {
		return
	}
	seed := b.seeds.next()
	src := rand.NewPCG(seed, seed+1)
	pos := distuv.Uniform{Min: -pc.Position, Max: pc.Position, Src: src}
	head := distuv.Uniform{Min: -pc.Heading, Max: pc.Heading, Src: src}
	a.SetPerturbFunc(func(e *entity.Entity) {
		if pc.Position > 0 {
			e.Overwrite(e.X+pos.Rand(), e.Y+pos.Rand())
		}
		if pc.Heading > 0 {
			e.OverwriteHeading(e.Theta + head.Rand())
		}
	})
}

func (b *builder) bodies() []arena.Body {
	out := make([]arena.Body, len(b.sim.agents))
	for i, a := range b.sim.agents {
		out[i] = a
	}
	return out
}

func (b *builder) buildArenas() {
	bodies := b.bodies()
	for _, ac := range b.cfg.Arenas {
		switch ac.Shape {
		case "circle":
			b.sim.AddArena(arena.NewCircular(ac.X, ac.Y, ac.Radius, ac.KeepOut, bodies...))
		default:
			b.sim.AddArena(arena.New(arena.Bounds{
				XLeft: ac.XLeft, XRight: ac.XRight, YBottom: ac.YBottom, YTop: ac.YTop,
			}, ac.KeepOut, bodies...))
		}
	}
	if b.cfg.Collisions.Enabled && len(bodies) > 1 {
		b.sim.AddArena(arena.NewCollisionManager(b.seeds.next(), bodies...))
	}
}

func (b *builder) buildLightManagers() error {
	locators := make([]stimuli.Locator, len(b.sim.agents))
	for i, a := range b.sim.agents {
		locators[i] = a
	}
	for i, mc := range b.cfg.LightManagers {
		lights := b.reg.Handles(mc.Label)
		switch mc.Type {
		case "shy":
			b.sim.AddLightManager(stimuli.NewShyLights(b.reg, lights, locators, mc.Radius, mc.Delay))
		case "merry_go_round":
			b.sim.AddLightManager(stimuli.NewMerryGoRound(b.reg, lights, mc.Period, mc.First))
		case "fading":
			b.sim.AddLightManager(stimuli.NewFadingLights(b.reg, lights, locators, mc.Rate))
		default:
			return fmt.Errorf("sim: light_managers[%d]: unknown type %q", i, mc.Type)
		}
	}
	return nil
}

func (b *builder) robot(name string) (*agent.Robot, error) {
	for i, a := range b.sim.agents {
		if a.Name() == name {
			return b.robots[i], nil
		}
	}
	return nil, fmt.Errorf("unknown robot %q", name)
}

func (b *builder) buildDisturbances() error {
	for i, dc := range b.cfg.Disturbances {
		d, err := b.buildDisturbance(i, dc)
		if err != nil {
			return fmt.Errorf("sim: disturbances[%d]: %w", i, err)
		}
		b.sim.AddDisturbance(d)
	}
	return nil
}

func (b *builder) buildDisturbance(i int, dc config.DisturbanceConfig) (disturbance.Source, error) {
	name := dc.Name
	if name == "" {
		name = fmt.Sprintf("%s_%d", dc.Type, i)
	}
	sched := disturbance.Schedule{Start: dc.Start, Stop: dc.Stop, Enabled: dc.Enabled}

	if dc.Type == "light_switcher" {
		if len(dc.Labels) != 2 {
			return nil, fmt.Errorf("light_switcher needs 2 labels, got %d", len(dc.Labels))
		}
		return disturbance.NewLightSwitcher(name, b.reg, dc.Labels[0], dc.Labels[1], sched), nil
	}

	robot, err := b.robot(dc.Robot)
	if err != nil {
		return nil, err
	}
	switch dc.Type {
	case "motor_noise":
		target := robot.Left()
		if dc.Motor == "right" {
			target = robot.Right()
		}
		return disturbance.NewMotorNoise(name, target, b.noiseSource(dc.Noise), sched)
	case "moving_sensors":
		indices := dc.Sensors
		if len(indices) == 0 {
			for j := agent.FixedSensors; j < robot.SensorCount(); j++ {
				indices = append(indices, j)
			}
		}
		maxMove := dc.MaxMove
		if maxMove <= 0 {
			maxMove = disturbance.DefaultMaxMove
		}
		return disturbance.NewMovingSensors(name, robot, indices, maxMove, b.seeds.next(), sched), nil
	case "sensory_inversion":
		if len(dc.Sensors) != 2 {
			return nil, fmt.Errorf("sensory_inversion needs 2 sensors, got %d", len(dc.Sensors))
		}
		return disturbance.NewSensoryInversion(name, robot, dc.Sensors[0], dc.Sensors[1], sched), nil
	case "parameter":
		return disturbance.NewParameter(name, robot.Controller(), b.seeds.next(), sched), nil
	}
	return nil, fmt.Errorf("unknown type %q", dc.Type)
}

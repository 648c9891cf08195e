package sensor

import "github.com/pthm-cable/sandbox/stimuli"

// SpeedReader is anything with a current speed, typically a motor.
type SpeedReader interface {
	Speed() float64
}

// EnergyReader is anything with an energy level, typically an agent.
type EnergyReader interface {
	Energy() float64
}

// Compass reports the sensor's own heading.
type Compass struct {
	base
}

// NewCompass creates a compass.
func NewCompass(opts Options) (*Compass, error) {
	b, err := newBase(positioned(opts), "compass")
	if err != nil {
		return nil, err
	}
	return &Compass{base: b}, nil
}

// Step implements Sensor.
func (s *Compass) Step(dt float64) float64 {
	s.Record()
	return s.Emit(s.Theta, dt)
}

// MotorSpeed reports the speed of a motor.
type MotorSpeed struct {
	base
	motor SpeedReader
}

// NewMotorSpeed creates a motor speed sensor.
func NewMotorSpeed(m SpeedReader, opts Options) (*MotorSpeed, error) {
	b, err := newBase(opts, "motor_speed")
	if err != nil {
		return nil, err
	}
	return &MotorSpeed{base: b, motor: m}, nil
}

// Step implements Sensor.
func (s *MotorSpeed) Step(dt float64) float64 {
	s.Record()
	return s.Emit(s.motor.Speed(), dt)
}

// Energy reports an agent's energy level. The reader may be bound after
// construction, since the agent usually owns the sensor.
type Energy struct {
	base
	src EnergyReader
}

// NewEnergy creates an energy sensor. src may be nil until Bind is called.
func NewEnergy(src EnergyReader, opts Options) (*Energy, error) {
	b, err := newBase(opts, "energy")
	if err != nil {
		return nil, err
	}
	return &Energy{base: b, src: src}, nil
}

// Bind sets the energy source.
func (s *Energy) Bind(src EnergyReader) { s.src = src }

// Step implements Sensor.
func (s *Energy) Step(dt float64) float64 {
	s.Record()
	raw := 0.0
	if s.src != nil {
		raw = s.src.Energy()
	}
	return s.Emit(raw, dt)
}

// FloorPatch reports 1 while the sensor is over any floor patch matching its
// label.
type FloorPatch struct {
	base
	patches []stimuli.Patch
	label   string
}

// NewFloorPatch creates a floor patch sensor. An empty label detects every
// patch.
func NewFloorPatch(patches []stimuli.Patch, label string, opts Options) (*FloorPatch, error) {
	b, err := newBase(positioned(opts), "floor_patch")
	if err != nil {
		return nil, err
	}
	return &FloorPatch{base: b, patches: patches, label: label}, nil
}

// Step implements Sensor.
func (s *FloorPatch) Step(dt float64) float64 {
	s.Record()
	raw := 0.0
	if s.enabled {
		for _, p := range s.patches {
			if s.label != "" && p.Label() != s.label {
				continue
			}
			if p.Contains(s.X, s.Y) {
				raw = 1
				break
			}
		}
	}
	return s.Emit(raw, dt)
}

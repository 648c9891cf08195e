package agent

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sandbox/controller"
	"github.com/pthm-cable/sandbox/motor"
	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/radio"
	"github.com/pthm-cable/sandbox/sensor"
	"github.com/pthm-cable/sandbox/telemetry"
)

// ErrLengthMismatch is returned when a robot has a different number of user
// sensors and sensor angles.
var ErrLengthMismatch = errors.New("sensor and angle counts differ")

// Centred marks a user sensor that sits at the body centre rather than on
// the perimeter.
var Centred = math.NaN()

// FixedSensors is the number of sensors every robot carries before the user
// sensors: energy, bump, left motor speed, right motor speed.
const FixedSensors = 4

// RobotConfig configures a differential-drive Robot.
type RobotConfig struct {
	Left, Right           motor.Config
	LeftNoise, RightNoise noise.Source

	LeftSpeedNoise, RightSpeedNoise noise.Source

	// Sensors are mounted at SensorAngles relative to the heading. Use
	// Centred for a sensor at the body centre.
	Sensors      []sensor.Sensor
	SensorAngles []float64

	Controller *controller.Controller

	Radio *radio.Radio
}

// Robot is a two-wheeled differential-drive body plan.
type Robot struct {
	cfg         RobotConfig
	left, right *motor.Motor
	angles      []float64
}

// NewRobot creates a robot body plan. Pass it to New.
func NewRobot(cfg RobotConfig) (*Robot, error) {
	if len(cfg.Sensors) != len(cfg.SensorAngles) {
		return nil, fmt.Errorf("robot: %d sensors, %d angles: %w", len(cfg.Sensors), len(cfg.SensorAngles), ErrLengthMismatch)
	}
	if cfg.Controller == nil {
		return nil, errors.New("robot: controller is required")
	}
	if cfg.Left.Name == "" {
		cfg.Left.Name = "left_motor"
	}
	if cfg.Right.Name == "" {
		cfg.Right.Name = "right_motor"
	}
	r := &Robot{
		cfg:   cfg,
		left:  motor.New(cfg.Left, cfg.LeftNoise),
		right: motor.New(cfg.Right, cfg.RightNoise),
	}
	r.resetAngles()
	return r, nil
}

func (r *Robot) resetAngles() {
	r.angles = make([]float64, 0, FixedSensors+len(r.cfg.SensorAngles))
	for range FixedSensors {
		r.angles = append(r.angles, Centred)
	}
	r.angles = append(r.angles, r.cfg.SensorAngles...)
}

// Attach implements BodyPlan.
func (r *Robot) Attach(a *Agent) error {
	ls, err := sensor.NewMotorSpeed(r.left, sensor.Options{Name: "left_speed", Noise: r.cfg.LeftSpeedNoise})
	if err != nil {
		return err
	}
	rs, err := sensor.NewMotorSpeed(r.right, sensor.Options{Name: "right_speed", Noise: r.cfg.RightSpeedNoise})
	if err != nil {
		return err
	}
	a.AddSensors(ls, rs)
	a.AddSensors(r.cfg.Sensors...)
	r.anchorSensors(a)
	return nil
}

// Sense implements BodyPlan.
func (r *Robot) Sense(a *Agent, dt float64) []float64 {
	return a.StepSensors(dt)
}

// Decide implements BodyPlan. A robot with a radio passes it to the step
// function as an extra argument.
func (r *Robot) Decide(a *Agent, activations []float64, dt float64) []float64 {
	if r.cfg.Radio != nil {
		return r.cfg.Controller.Step(dt, activations, r.cfg.Radio)
	}
	return r.cfg.Controller.Step(dt, activations)
}

// Actuators implements BodyPlan.
func (r *Robot) Actuators() int { return 2 }

// Act implements BodyPlan.
func (r *Robot) Act(a *Agent, commands []float64, dt float64) []float64 {
	return []float64{r.left.Step(commands[0], dt), r.right.Step(commands[1], dt)}
}

// Integrate implements BodyPlan.
func (r *Robot) Integrate(a *Agent, speeds []float64, dt float64) {
	v := floats.Sum(speeds) / float64(len(speeds))
	omega := (speeds[1] - speeds[0]) / (2 * a.Radius())
	theta := a.Theta
	a.X += dt * v * math.Cos(theta)
	a.Y += dt * v * math.Sin(theta)
	a.Theta += dt * omega
}

func (r *Robot) mount(a *Agent, i int) (x, y, theta float64) {
	ang := r.angles[i]
	if math.IsNaN(ang) {
		return a.X, a.Y, a.Theta
	}
	return a.X + a.Radius()*math.Cos(a.Theta+ang),
		a.Y + a.Radius()*math.Sin(a.Theta+ang),
		a.Theta + ang
}

// UpdatePose implements BodyPlan.
func (r *Robot) UpdatePose(a *Agent) {
	for i, s := range a.Sensors() {
		s.Place(r.mount(a, i))
	}
	if r.cfg.Radio != nil {
		r.cfg.Radio.SetPosition(a.X, a.Y)
	}
}

func (r *Robot) anchorSensors(a *Agent) {
	for i, s := range a.Sensors() {
		s.Anchor(r.mount(a, i))
	}
}

// Reset implements BodyPlan. The agent has already reset the sensors.
func (r *Robot) Reset(a *Agent) {
	r.left.Reset()
	r.right.Reset()
	r.resetAngles()
	r.cfg.Controller.Reset()
	if r.cfg.Radio != nil {
		r.cfg.Radio.Reset()
	}
	r.anchorSensors(a)
}

// Left returns the left motor.
func (r *Robot) Left() *motor.Motor { return r.left }

// Right returns the right motor.
func (r *Robot) Right() *motor.Motor { return r.right }

// Motors returns both motors, left first.
func (r *Robot) Motors() []*motor.Motor { return []*motor.Motor{r.left, r.right} }

// Controller returns the robot's controller.
func (r *Robot) Controller() *controller.Controller { return r.cfg.Controller }

// Radio returns the robot's radio, or nil.
func (r *Robot) Radio() *radio.Radio { return r.cfg.Radio }

// SensorCount returns the length of the full sensor list, fixed sensors
// included.
func (r *Robot) SensorCount() int { return len(r.angles) }

// SensorAngle returns the mounting angle of sensor i. ok is false for centred
// sensors and out-of-range indices.
func (r *Robot) SensorAngle(i int) (angle float64, ok bool) {
	if i < 0 || i >= len(r.angles) || math.IsNaN(r.angles[i]) {
		return 0, false
	}
	return r.angles[i], true
}

// SetSensorAngle changes the mounting angle of sensor i. Centred sensors and
// out-of-range indices are ignored. The new angle applies from the next pose
// update.
func (r *Robot) SetSensorAngle(i int, angle float64) {
	if i < 0 || i >= len(r.angles) || math.IsNaN(r.angles[i]) {
		return
	}
	r.angles[i] = angle
}

// SensorAngles returns a copy of the mounting angles, fixed sensors included.
func (r *Robot) SensorAngles() []float64 { return slices.Clone(r.angles) }

// Series implements BodyPlan.
func (r *Robot) Series() telemetry.Series {
	s := telemetry.Series{}
	s.Merge(r.left.Name(), r.left.Series())
	s.Merge(r.right.Name(), r.right.Series())
	s.Merge("controller", r.cfg.Controller.Series())
	return s
}

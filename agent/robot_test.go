package agent

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/sandbox/controller"
	"github.com/pthm-cable/sandbox/motor"
	"github.com/pthm-cable/sandbox/radio"
	"github.com/pthm-cable/sandbox/sensor"
	"github.com/pthm-cable/sandbox/stimuli"
)

func fixedController(t *testing.T, inputs int, left, right float64) *controller.Controller {
	t.Helper()
	c, err := controller.New(controller.Config{
		Inputs:   inputs,
		Commands: 2,
		Step:     controller.Fixed(),
		Params:   []float64{left, right},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newRobot(t *testing.T, cfg Config, rc RobotConfig) (*Agent, *Robot) {
	t.Helper()
	r, err := NewRobot(rc)
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(cfg, r)
	if err != nil {
		t.Fatal(err)
	}
	return a, r
}

func TestRobotDrivesStraight(t *testing.T) {
	a, _ := newRobot(t, Config{}, RobotConfig{
		Left:       motor.Config{MaxSpeed: 2},
		Right:      motor.Config{MaxSpeed: 2},
		Controller: fixedController(t, 4, 1, 1),
	})
	for i := 0; i < 10; i++ {
		a.Step(0.1)
	}
	if math.Abs(a.X-1) > 1e-9 || math.Abs(a.Y) > 1e-12 || math.Abs(a.Theta) > 1e-12 {
		t.Errorf("pose = (%v, %v, %v), want (1, 0, 0)", a.X, a.Y, a.Theta)
	}
}

func TestRobotTurnsInPlace(t *testing.T) {
	a, _ := newRobot(t, Config{Radius: 0.5}, RobotConfig{
		Left:       motor.Config{MaxSpeed: 2},
		Right:      motor.Config{MaxSpeed: 2},
		Controller: fixedController(t, 4, -1, 1),
	})
	a.Step(0.1)
	// omega = (1 - -1) / (2 * 0.5)
	if math.Abs(a.Theta-0.2) > 1e-12 || a.X != 0 {
		t.Errorf("theta = %v x = %v, want 0.2 and 0", a.Theta, a.X)
	}
}

func TestRobotSensorAngleMismatch(t *testing.T) {
	s, _ := sensor.NewCompass(sensor.Options{})
	_, err := NewRobot(RobotConfig{
		Sensors:      []sensor.Sensor{s},
		SensorAngles: []float64{0, 1},
		Controller:   fixedController(t, 5, 0, 0),
	})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestRobotSensorLayout(t *testing.T) {
	reg := stimuli.NewRegistry()
	reg.Add(stimuli.LightSpec{X: 5, Y: 5, Brightness: 1})
	left, _ := sensor.NewLight(reg, "", sensor.FOV{Width: math.Pi}, sensor.Options{Name: "left_eye"})
	right, _ := sensor.NewLight(reg, "", sensor.FOV{Width: math.Pi}, sensor.Options{Name: "right_eye"})
	centre, _ := sensor.NewCompass(sensor.Options{})
	a, r := newRobot(t, Config{X: 1, Radius: 2}, RobotConfig{
		Sensors:      []sensor.Sensor{left, right, centre},
		SensorAngles: []float64{math.Pi / 2, -math.Pi / 2, Centred},
		Controller:   fixedController(t, 7, 0, 0),
	})

	if got := len(a.Sensors()); got != 7 {
		t.Fatalf("sensor count = %d, want 7", got)
	}
	if math.Abs(left.X-1) > 1e-12 || math.Abs(left.Y-2) > 1e-12 {
		t.Errorf("left eye at (%v, %v), want (1, 2)", left.X, left.Y)
	}
	if math.Abs(right.Y+2) > 1e-12 || math.Abs(right.Theta+math.Pi/2) > 1e-12 {
		t.Errorf("right eye at y=%v theta=%v", right.Y, right.Theta)
	}
	if centre.X != 1 || centre.Y != 0 {
		t.Errorf("centre sensor at (%v, %v), want (1, 0)", centre.X, centre.Y)
	}
	if xs := left.Xs(); math.Abs(xs[0]-1) > 1e-12 {
		t.Errorf("left eye initial history = %v, want anchored at mount", xs)
	}

	if _, ok := r.SensorAngle(2); ok {
		t.Error("motor speed sensor should have no angle")
	}
	r.SetSensorAngle(4, 0)
	a.Teleport(1, 0)
	if math.Abs(left.X-3) > 1e-12 {
		t.Errorf("left eye x after re-mount = %v, want 3", left.X)
	}
	a.Reset()
	if ang, _ := r.SensorAngle(4); ang != math.Pi/2 {
		t.Errorf("angle after reset = %v, want pi/2", ang)
	}
}

func TestRobotPassesRadio(t *testing.T) {
	var got any
	step := func(dt float64, inputs, params, state []float64, extras ...any) ([]float64, []float64) {
		if len(extras) > 0 {
			got = extras[0]
		}
		return []float64{0, 0}, nil
	}
	c, _ := controller.New(controller.Config{Inputs: 4, Commands: 2, Step: step})
	rad := radio.New(0, 0, radio.Config{})
	a, _ := newRobot(t, Config{}, RobotConfig{Controller: c, Radio: rad})
	a.Teleport(2, 3)
	a.Step(0.1)
	if got != rad {
		t.Error("controller did not receive the radio")
	}
	if x, y := rad.Position(); x != 2 || y != 3 {
		t.Errorf("radio at (%v, %v), want (2, 3)", x, y)
	}
}

func TestRobotResetIdempotent(t *testing.T) {
	a, _ := newRobot(t, Config{ActionCost: 0.1}, RobotConfig{
		Left:       motor.Config{MaxSpeed: 2, Inertia: 2},
		Right:      motor.Config{MaxSpeed: 2},
		Controller: fixedController(t, 4, 1, 2),
	})
	for i := 0; i < 20; i++ {
		a.Step(0.1)
	}
	a.Reset()
	once := a.Series()
	a.Reset()
	if diff := cmp.Diff(once, a.Series()); diff != "" {
		t.Errorf("second reset changed state (-once +twice):\n%s", diff)
	}
}

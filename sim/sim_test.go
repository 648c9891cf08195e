package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm-cable/sandbox/agent"
	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/disturbance"
	"github.com/pthm-cable/sandbox/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parse(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func build(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	s, err := Build(cfg, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

type recorder struct {
	name  string
	log   *[]string
	reset int
}

func (r *recorder) Step(dt float64) { *r.log = append(*r.log, r.name) }
func (r *recorder) Reset()          { r.reset++ }

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		dt    float64
		order []string
		want  error
	}{
		{"ok", 0.1, nil, nil},
		{"zero dt", 0, nil, ErrBadStep},
		{"nan dt", math.NaN(), nil, ErrBadStep},
		{"bad group", 0.1, []string{"agents", "weather"}, ErrUnknownGroup},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.dt, 10, nil, Options{Order: tc.order})
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStepOrder(t *testing.T) {
	var log []string
	s, err := New(0.1, 2, nil, Options{
		Logger: quietLogger(),
		Order:  []string{GroupLightManagers, GroupArenas},
	})
	if err != nil {
		t.Fatal(err)
	}
	arenaStep := &recorder{name: "arena", log: &log}
	managerStep := &recorder{name: "manager", log: &log}
	s.AddArena(arenaStep)
	s.AddLightManager(managerStep)

	s.Step()
	s.Step()
	want := []string{"manager", "arena", "manager", "arena"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("step order (-want +got):\n%s", diff)
	}
	if s.Tick() != 2 {
		t.Errorf("tick = %d, want 2", s.Tick())
	}

	s.Reset(1)
	if s.Tick() != 0 || arenaStep.reset != 1 || managerStep.reset != 1 {
		t.Errorf("after Reset: tick = %d, resets = %d, %d", s.Tick(), arenaStep.reset, managerStep.reset)
	}
}

func TestBuildDefaults(t *testing.T) {
	s := build(t, config.Defaults(), Options{})
	if len(s.Agents()) != 1 {
		t.Fatalf("agents = %d, want 1", len(s.Agents()))
	}
	if _, ok := s.Agent("robot_0"); !ok {
		t.Error("robot_0 not found")
	}
	if s.Ticks() != 1000 || s.DT() != 0.1 {
		t.Errorf("ticks = %d, dt = %v", s.Ticks(), s.DT())
	}
	// two scenario lights and the consumable's light
	if n := s.Lights().Len(); n != 3 {
		t.Errorf("lights = %d, want 3", n)
	}
	if len(s.Disturbances()) != 1 || s.Disturbances()[0].Name() != "swap_lights" {
		t.Errorf("disturbances = %v", s.Disturbances())
	}
	if s.Pheromones() != nil {
		t.Error("pheromones built with no dropping robot")
	}
	// energy, bump, two motor speeds and the two light sensors
	a, _ := s.Agent("robot_0")
	if n := len(a.Sensors()); n != 6 {
		t.Errorf("sensors = %d, want 6", n)
	}
}

func TestBuildPheromonesAndRadios(t *testing.T) {
	cfg := parse(t, `
robots:
  - name: a
    drop_pheromones: true
    drop_interval: 0.5
    radio: {transmit_range: 5, receive_range: 5}
    controller: {type: fixed, params: [0.5, 0.5]}
  - name: b
    x: 3
    radio: {transmit_range: 5, receive_range: 5}
    controller: {type: fixed, params: [0, 0]}
disturbances: []
`)
	s := build(t, cfg, Options{})
	if s.Pheromones() == nil {
		t.Fatal("pheromone manager missing")
	}
	for range 12 {
		s.Step()
	}
	if n := s.Pheromones().Len(); n != 2 {
		t.Errorf("markers after 1.2s = %d, want 2", n)
	}
	if len(s.arenas) != 2 {
		t.Errorf("arenas = %d, want the boundary and collisions", len(s.arenas))
	}
}

func TestRunMany(t *testing.T) {
	cfg := parse(t, "simulation: {duration: 5}")
	s := build(t, cfg, Options{})
	results, err := s.RunMany(context.Background(), 3)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Run != i || r.Ticks != 50 {
			t.Errorf("result %d: run = %d, ticks = %d", i, r.Run, r.Ticks)
		}
		if len(r.Lifetimes) != 1 || r.Lifetimes[0].Run != i {
			t.Errorf("result %d lifetimes = %+v", i, r.Lifetimes)
		}
	}
	// perturbation moves the start pose of every run
	if results[0].Lifetimes[0].FinalX == results[1].Lifetimes[0].FinalX {
		t.Error("runs 0 and 1 ended at the same x")
	}
}

func TestRunManyNoPerturbRepeats(t *testing.T) {
	cfg := parse(t, "simulation: {duration: 5}")
	s := build(t, cfg, Options{NoPerturb: true})
	results, err := s.RunMany(context.Background(), 2)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}
	a, b := results[0].Lifetimes[0], results[1].Lifetimes[0]
	a.Run, b.Run = 0, 0
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("unperturbed runs differ (-run0 +run1):\n%s", diff)
	}
}

func TestKeepParamsStillClearsControllerHistory(t *testing.T) {
	cfg := parse(t, `
simulation: {duration: 1}
robots:
  - controller: {type: fixed, params: [0.5, 0.5], keep_params_on_reset: true}
disturbances: []
`)
	s := build(t, cfg, Options{NoPerturb: true})
	ctx := context.Background()
	if _, err := s.RunMany(ctx, 1); err != nil {
		t.Fatalf("RunMany: %v", err)
	}
	ctrl := s.Agents()[0].Plan().(*agent.Robot).Controller()
	ctrl.SetParams([]float64{0.2, 0.3})
	if _, err := s.RunMany(ctx, 1); err != nil {
		t.Fatalf("RunMany: %v", err)
	}

	want := s.Ticks() + 1
	if got := len(ctrl.Inputs()); got != want {
		t.Errorf("input history = %d entries, want %d", got, want)
	}
	if got := len(ctrl.Commands()); got != want {
		t.Errorf("command history = %d entries, want %d", got, want)
	}
	if got := len(ctrl.ParamsHistory()); got != want {
		t.Errorf("params history = %d entries, want %d", got, want)
	}
	if diff := cmp.Diff([]float64{0.2, 0.3}, ctrl.Params()); diff != "" {
		t.Errorf("params not kept across reset (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsSilentMotorNoise(t *testing.T) {
	cfg := config.Defaults()
	// bypasses Validate, as a programmatically built config would
	cfg.Disturbances = []config.DisturbanceConfig{{Type: "motor_noise", Robot: "robot_0", Motor: "left"}}
	if _, err := Build(cfg, Options{Logger: quietLogger()}); !errors.Is(err, disturbance.ErrNoNoise) {
		t.Errorf("Build err = %v, want ErrNoNoise", err)
	}
}

func TestRunCancelled(t *testing.T) {
	s := build(t, config.Defaults(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Ticks != 0 {
		t.Errorf("ticks = %d, want 0", res.Ticks)
	}
}

func TestResetIdempotent(t *testing.T) {
	cfg := parse(t, `
simulation: {duration: 20}
light_managers: [{type: merry_go_round, period: 3}]
disturbances:
  - {type: moving_sensors, robot: robot_0, start: [2], stop: [8]}
  - {type: light_switcher, labels: [yellow, blue], start: [5]}
`)
	s := build(t, cfg, Options{})
	s.Reset(0)
	before := s.Series()
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Reset(0)
	after := s.Series()
	if diff := cmp.Diff(before, after, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("state after Reset differs (-before +after):\n%s", diff)
	}
}

func TestDeathIsLogged(t *testing.T) {
	cfg := parse(t, `
robots:
  - energy: {initial: 1, max: 1, metabolic_cost: 1}
    controller: {type: fixed, params: [0, 0]}
consumables: []
disturbances: []
simulation: {duration: 3}
`)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := build(t, cfg, Options{Logger: logger, NoPerturb: true})
	results, err := s.RunMany(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	l := results[0].Lifetimes[0]
	if l.Alive {
		t.Fatal("robot survived")
	}
	if l.SurvivalTimeSec < 0.9 || l.SurvivalTimeSec > 1.2 {
		t.Errorf("survival = %v, want about 1s", l.SurvivalTimeSec)
	}
	if !strings.Contains(buf.String(), `"msg":"agent died"`) {
		t.Errorf("no death log in:\n%s", buf.String())
	}
	if l.FinalEnergy != 0 {
		t.Errorf("final energy = %v, want 0", l.FinalEnergy)
	}
}

func TestLightSeekerApproaches(t *testing.T) {
	cfg := parse(t, `
simulation: {duration: 60}
lights: [{x: 10, y: 10, colour: yellow, label: yellow}]
consumables: []
disturbances: []
`)
	s := build(t, cfg, Options{NoPerturb: true})
	start := s.LightDistance(-10, -10)
	if math.Abs(start-math.Hypot(20, 20)) > 1e-9 {
		t.Fatalf("start distance = %v", start)
	}
	results, err := s.RunMany(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	got := results[0].Lifetimes[0].LightDistance
	if got >= start {
		t.Errorf("final light distance %v, want < %v", got, start)
	}
}

func TestLightDistanceNoneLit(t *testing.T) {
	cfg := parse(t, `
lights: [{x: 1, y: 1, off: true}]
disturbances: []
`)
	s := build(t, cfg, Options{})
	if d := s.LightDistance(0, 0); d != -1 {
		t.Errorf("distance = %v, want -1", d)
	}
}

func TestOutputWindows(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := parse(t, `
simulation: {duration: 5.5}
telemetry: {record_interval: 10, write_series: true}
`)
	s := build(t, cfg, Options{Output: out})
	if _, err := s.RunMany(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header plus five full windows and one partial window per run
	if len(lines) != 1+2*6 {
		t.Errorf("telemetry rows = %d, want 13", len(lines))
	}
	agents, err := os.ReadFile(filepath.Join(dir, "agents.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(agents)), "\n")); n != 3 {
		t.Errorf("agent rows = %d, want 3", n)
	}
	for _, name := range []string{"series_run_000.csv", "series_run_001.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

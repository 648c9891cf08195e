package stimuli

import "testing"

type point struct{ x, y float64 }

func (p *point) Position() (float64, float64) { return p.x, p.y }

func TestShyLights(t *testing.T) {
	r := NewRegistry()
	h := r.Add(LightSpec{Brightness: 1})
	agent := &point{x: 0.5}
	m := NewShyLights(r, []Handle{h}, []Locator{agent}, 1, 0.25)

	m.Step(0.1)
	if r.Light(h).On {
		t.Fatal("light should switch off when an agent is close")
	}
	agent.x = 10
	for i := 0; i < 3; i++ {
		m.Step(0.1)
	}
	if !r.Light(h).On {
		t.Error("light should switch back on after the delay")
	}
}

func TestMerryGoRound(t *testing.T) {
	r := NewRegistry()
	hs := []Handle{r.Add(LightSpec{}), r.Add(LightSpec{}), r.Add(LightSpec{})}
	m := NewMerryGoRound(r, hs, 1, 0)

	countOn := func() int {
		n := 0
		for _, h := range hs {
			if r.Light(h).On {
				n++
			}
		}
		return n
	}
	for i := 0; i < 35; i++ {
		m.Step(0.1)
		if countOn() != 1 {
			t.Fatalf("step %d: %d lights on, want 1", i, countOn())
		}
	}
	if m.Current() != 0 {
		t.Errorf("current = %d, want 0 after three full periods", m.Current())
	}
	m.Step(0.1)
	m.Reset()
	if m.Current() != 0 || !r.Light(hs[0]).On {
		t.Error("reset did not relight the first light")
	}
}

func TestFadingLights(t *testing.T) {
	r := NewRegistry()
	h := r.Add(LightSpec{Brightness: 1})
	m := NewFadingLights(r, []Handle{h}, []Locator{&point{}}, 10)
	for i := 0; i < 100 && r.Light(h).On; i++ {
		m.Step(0.1)
	}
	l := r.Light(h)
	if l.On {
		t.Fatal("light never faded out")
	}
	if l.Brightness < 0 || l.Brightness >= 0.01 {
		t.Errorf("brightness = %v, want in [0, 0.01)", l.Brightness)
	}
}

package controller

// PID is a proportional-integral-derivative feedback controller.
type PID struct {
	KP, KI, KD float64

	integral float64
	errors   []float64
	signals  []float64
}

// NewPID creates a PID controller.
func NewPID(kp, ki, kd float64) *PID {
	p := &PID{KP: kp, KI: ki, KD: kd}
	p.Reset()
	return p
}

// Step returns the control signal for one measurement against a reference.
func (p *PID) Step(dt, measured, reference float64) float64 {
	err := reference - measured
	prev := p.errors[len(p.errors)-1]
	var u float64
	u, p.integral = pidTerm(p.KP, p.KI, p.KD, err, prev, p.integral, dt)
	p.errors = append(p.errors, err)
	p.signals = append(p.signals, u)
	return u
}

// Errors returns the error history.
func (p *PID) Errors() []float64 { return p.errors }

// Signals returns the control signal history.
func (p *PID) Signals() []float64 { return p.signals }

// Reset clears the integral and histories.
func (p *PID) Reset() {
	p.integral = 0
	p.errors = []float64{0}
	p.signals = []float64{0}
}

func pidTerm(kp, ki, kd, err, prev, integral, dt float64) (u, newIntegral float64) {
	newIntegral = integral + err*dt
	deriv := 0.0
	if dt > 0 {
		deriv = (err - prev) / dt
	}
	return kp*err + ki*newIntegral + kd*deriv, newIntegral
}

package vehicle

import (
	"fmt"
)

// TeleopInput carries one keystroke of interactive control.
type TeleopInput struct {
	KeyCode rune
}

// TeleopOutput collects human-readable feedback lines about the controller
// state after a keystroke.
type TeleopOutput struct {
	Feedback []string
}

func (o *TeleopOutput) addf(format string, args ...any) {
	o.Feedback = append(o.Feedback, fmt.Sprintf(format, args...))
}

// pid is a discrete PID with output clamping used as anti-windup: while the
// output saturates, the integral term stops accumulating.
type pid struct {
	KP, KI, KD float64
	Max        float64 // absolute output bound, 0 disables clamping

	integral float64
	lastErr  float64
	primed   bool
}

func (p *pid) reset() {
	p.integral = 0
	p.lastErr = 0
	p.primed = false
}

func (p *pid) compute(err, dt float64) float64 {
	deriv := 0.0
	if p.primed && dt > 0 {
		deriv = (err - p.lastErr) / dt
	}
	p.lastErr = err
	p.primed = true

	out := p.KP*err + p.KI*p.integral + p.KD*deriv
	if p.Max > 0 {
		if out > p.Max {
			return p.Max
		}
		if out < -p.Max {
			return -p.Max
		}
	}
	p.integral += err * dt
	return out
}

package reward

import "time"

type gateState uint8

const (
	gateArmed gateState = iota
	gateResolved
	gateClosed
)

// sessionGate tracks one live session from login until its grant
// decision resolves or the session logs out. The millisecond
// accumulator enforces at most one eligibility pass per accumulated
// second, independent of how fine-grained the host's ticks are.
type sessionGate struct {
	sessionID     string
	accountKey    string
	originKey     string
	characterName string
	loginAt       time.Time
	elapsedMillis int64
	state         gateState
}

// advance accumulates tick time and reports whether an eligibility pass
// is due. Carries the remainder rather than resetting, so sub-second
// tick jitter does not drift the one-second cadence.
func (g *sessionGate) advance(diffMillis int64) bool {
	if g.state != gateArmed {
		return false
	}
	g.elapsedMillis += diffMillis
	if g.elapsedMillis < 1000 {
		return false
	}
	g.elapsedMillis -= 1000
	return true
}

// delayElapsed reports whether the post-login delay has passed.
func (g *sessionGate) delayElapsed(now time.Time, delay time.Duration) bool {
	return now.Sub(g.loginAt) >= delay
}

package playback

// State is the transport state of the preview playhead.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StateSeeking State = "seeking"
)

// Clock tracks the playhead for one session. It is not safe for concurrent
// use on its own; the session mutex serializes every caller.
type Clock struct {
	state    State
	position float64
	total    float64
}

func NewClock() *Clock {
	return &Clock{state: StateStopped}
}

func (c *Clock) State() State      { return c.state }
func (c *Clock) Position() float64 { return c.position }
func (c *Clock) Total() float64    { return c.total }

// SetTotal re-arms the playable range after a timeline mutation. The
// playhead is clamped into the new range; an empty timeline forces a stop
// at zero.
func (c *Clock) SetTotal(total float64) {
	if total < 0 {
		total = 0
	}
	c.total = total
	if c.total == 0 {
		c.position = 0
		c.state = StateStopped
		return
	}
	if c.position > c.total {
		c.position = c.total
	}
}

// Play starts playback. On an empty timeline it does nothing. Playing from
// the terminal end starts a new run at zero.
func (c *Clock) Play() {
	if c.total <= 0 {
		return
	}
	if c.position >= c.total {
		c.position = 0
	}
	c.state = StatePlaying
}

// Pause halts playback, keeping the playhead where it is.
func (c *Clock) Pause() {
	c.state = StateStopped
}

// Toggle flips between playing and stopped. During a scrub it does nothing;
// the scrub owns the transport until it ends.
func (c *Clock) Toggle() {
	switch c.state {
	case StatePlaying:
		c.Pause()
	case StateStopped:
		c.Play()
	}
}

// Advance moves the playhead forward by dt seconds. Only a playing clock
// advances. Reaching the end stops playback with the playhead held at the
// final position.
func (c *Clock) Advance(dt float64) {
	if c.state != StatePlaying || dt <= 0 {
		return
	}
	c.position += dt
	if c.position >= c.total {
		c.position = c.total
		c.state = StateStopped
	}
}

// Seek moves the playhead to t, clamped into [0, total]. The transport
// state is preserved, so seeking during playback keeps playing from the
// new position.
func (c *Clock) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if t > c.total {
		t = c.total
	}
	c.position = t
}

// BeginScrub enters the seeking state; ticks stop advancing the playhead
// while the user drags it.
func (c *Clock) BeginScrub() {
	c.state = StateSeeking
}

// EndScrub leaves the seeking state. A finished scrub lands stopped;
// resuming playback is an explicit Play.
func (c *Clock) EndScrub() {
	if c.state == StateSeeking {
		c.state = StateStopped
	}
}

// AtEnd reports whether the playhead rests at the terminal position.
func (c *Clock) AtEnd() bool {
	return c.total > 0 && c.position >= c.total
}

package core

import "time"

// Clock measures wall time in seconds. A stopped clock keeps its last elapsed value.
type Clock struct {
	start   time.Time
	last    time.Time
	elapsed float64
	delta   float64
	running bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.running {
		return
	}
	now := time.Now()
	c.elapsed = now.Sub(c.start).Seconds()
	c.delta = now.Sub(c.last).Seconds()
	c.last = now
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.start = time.Now()
	c.last = c.start
	c.elapsed = 0
	c.delta = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the seconds since Start as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns the seconds between the two most recent updates.
func (c *Clock) Delta() float64 {
	return c.delta
}

package telemetry

import "github.com/pthm-cable/shoal/flock"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	tick            int32
	simTime         float64
	windowStartTick int32
	windowStartTime float64

	// Event counters for current window, by population
	counters map[string]*windowCounters
}

type windowCounters struct {
	ticks            int
	dispatchFailures int
}

// PopulationSample is the state of one population handed to Flush.
type PopulationSample struct {
	Name   string
	Active bool
	Agents []flock.Agent
	Params *flock.Params
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 10
	}
	return &Collector{
		windowDurationSec: windowDurationSec,
		counters:          make(map[string]*windowCounters),
	}
}

func (c *Collector) counter(population string) *windowCounters {
	wc, ok := c.counters[population]
	if !ok {
		wc = &windowCounters{}
		c.counters[population] = wc
	}
	return wc
}

// Advance moves the clock forward by one world step of dt seconds.
func (c *Collector) Advance(dt float32) {
	c.tick++
	c.simTime += float64(dt)
}

// Tick returns the number of world steps so far.
func (c *Collector) Tick() int32 { return c.tick }

// SimTime returns the simulated seconds so far.
func (c *Collector) SimTime() float64 { return c.simTime }

// RecordTick records a successful tick of population.
func (c *Collector) RecordTick(population string) {
	c.counter(population).ticks++
}

// RecordDispatchFailure records a failed tick of population.
func (c *Collector) RecordDispatchFailure(population string) {
	c.counter(population).dispatchFailures++
}

// ShouldFlush returns true if enough simulated time has passed to flush the window.
func (c *Collector) ShouldFlush() bool {
	return c.simTime-c.windowStartTime >= c.windowDurationSec
}

// Flush produces one WindowStats per population and resets counters for the
// next window.
func (c *Collector) Flush(pops []PopulationSample) []WindowStats {
	out := make([]WindowStats, 0, len(pops))
	for _, p := range pops {
		wc := c.counter(p.Name)
		ws := WindowStats{
			WindowStartTick:  c.windowStartTick,
			WindowEndTick:    c.tick,
			SimTimeSec:       c.simTime,
			Population:       p.Name,
			Active:           p.Active,
			Ticks:            wc.ticks,
			DispatchFailures: wc.dispatchFailures,
		}
		if p.Active {
			ws.FlockSample = ComputeFlockStats(p.Agents, p.Params)
		}
		out = append(out, ws)
	}

	// Reset for next window
	c.windowStartTick = c.tick
	c.windowStartTime = c.simTime
	clear(c.counters)

	return out
}

package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/flock"
)

// WindowStats holds aggregated statistics of one population for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Population      string  `csv:"population"`
	Active          bool    `csv:"active"`

	// Events during window
	Ticks            int `csv:"ticks"`
	DispatchFailures int `csv:"dispatch_failures"`

	FlockSample
}

// FlockSample describes a population array at one instant.
type FlockSample struct {
	Count int `csv:"count"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Polarization is the length of the mean heading, 1 when every agent
	// moves the same way and near 0 for random headings.
	Polarization float64 `csv:"polarization"`

	// Shape
	CentroidX float64 `csv:"centroid_x"`
	CentroidY float64 `csv:"centroid_y"`
	CentroidZ float64 `csv:"centroid_z"`
	Spread    float64 `csv:"spread"` // mean distance from centroid

	AltitudeMin float64 `csv:"altitude_min"`
	AltitudeMax float64 `csv:"altitude_max"`

	// Invariant checks
	OutOfBounds    int `csv:"out_of_bounds"`    // outside the depth band or below the water plane
	InCenter       int `csv:"in_center"`        // inside the avoided centre square
	OverSpeedLimit int `csv:"over_speed_limit"` // faster than MaxSpeed after integration
}

// overSpeedTolerance absorbs float32 rounding in the speed clamp.
const overSpeedTolerance = 1e-3

// ComputeFlockStats summarizes agents under params p.
func ComputeFlockStats(agents []flock.Agent, p *flock.Params) FlockSample {
	n := len(agents)
	if n == 0 {
		return FlockSample{}
	}

	speeds := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)

	var heading flock.Vec3
	moving := 0
	s := FlockSample{
		Count:       n,
		AltitudeMin: math.Inf(1),
		AltitudeMax: math.Inf(-1),
	}

	for i := range agents {
		a := &agents[i]
		speed := a.Velocity.Len()
		speeds[i] = float64(speed)
		xs[i] = float64(a.Position.X)
		ys[i] = float64(a.Position.Y)
		zs[i] = float64(a.Position.Z)

		if speed > 0 {
			heading = heading.Add(a.Velocity.Scale(1 / speed))
			moving++
		}

		y := float64(a.Position.Y)
		s.AltitudeMin = math.Min(s.AltitudeMin, y)
		s.AltitudeMax = math.Max(s.AltitudeMax, y)

		if p == nil {
			continue
		}
		if outOfBounds(a.Position, &p.Boundary) {
			s.OutOfBounds++
		}
		if inCenter(a.Position, &p.Boundary) {
			s.InCenter++
		}
		if p.MaxSpeed > 0 && speed > p.MaxSpeed*(1+overSpeedTolerance) {
			s.OverSpeedLimit++
		}
	}

	if moving > 0 {
		s.Polarization = float64(heading.Len()) / float64(moving)
	}

	s.SpeedMean, s.SpeedStd = stat.PopMeanStdDev(speeds, nil)
	sort.Float64s(speeds)
	s.SpeedP10 = stat.Quantile(0.10, stat.Empirical, speeds, nil)
	s.SpeedP50 = stat.Quantile(0.50, stat.Empirical, speeds, nil)
	s.SpeedP90 = stat.Quantile(0.90, stat.Empirical, speeds, nil)

	s.CentroidX = stat.Mean(xs, nil)
	s.CentroidY = stat.Mean(ys, nil)
	s.CentroidZ = stat.Mean(zs, nil)

	dists := make([]float64, n)
	for i := range dists {
		dx := xs[i] - s.CentroidX
		dy := ys[i] - s.CentroidY
		dz := zs[i] - s.CentroidZ
		dists[i] = math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	s.Spread = stat.Mean(dists, nil)

	return s
}

func outOfBounds(pos flock.Vec3, b *flock.Boundary) bool {
	switch b.Kind {
	case flock.DepthBand:
		return pos.Y > b.MinDepth || pos.Y < b.MaxDepth
	case flock.WaterPlane:
		return pos.Y < b.WaterHeight
	}
	return false
}

func inCenter(pos flock.Vec3, b *flock.Boundary) bool {
	if b.Kind != flock.WaterPlane || b.CenterHalfWidth <= 0 {
		return false
	}
	return flock.InExclusion(pos.X, pos.Z, b.CenterHalfWidth)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("population", s.Population),
		slog.Bool("active", s.Active),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("dispatch_failures", s.DispatchFailures),
		slog.Int("count", s.Count),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("spread", s.Spread),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("in_center", s.InCenter),
		slog.Int("over_speed_limit", s.OverSpeedLimit),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"population", s.Population,
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"active", s.Active,
		"ticks", s.Ticks,
		"dispatch_failures", s.DispatchFailures,
		"count", s.Count,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p10", s.SpeedP10,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"polarization", s.Polarization,
		"centroid_x", s.CentroidX,
		"centroid_y", s.CentroidY,
		"centroid_z", s.CentroidZ,
		"spread", s.Spread,
		"altitude_min", s.AltitudeMin,
		"altitude_max", s.AltitudeMax,
		"out_of_bounds", s.OutOfBounds,
		"in_center", s.InCenter,
		"over_speed_limit", s.OverSpeedLimit,
	)
}

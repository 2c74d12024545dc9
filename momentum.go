// FILE: momentum.go
// Package main – Sliding-window momentum computation and extreme detection.
//
// MomentumTracker keeps a time-bounded price history and turns each new
// sample into an instantaneous momentum value (% price change per minute,
// measured against the earliest point inside the lookback window — the
// longest baseline available, which biases toward slower, more stable
// estimates).
//
// ExtremeDetector keeps a time-bounded momentum history and flags values
// falling outside an adaptive mean ± k·σ band. Callers evaluate the
// candidate value first and commit it to history afterwards, so the
// instantaneous and historical series are judged together in one pass.

package main

import (
	"math"
	"time"
)

// PricePoint is one price sample.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// MomentumPoint is one momentum sample.
type MomentumPoint struct {
	Time     time.Time
	Momentum float64
}

// MomentumTracker computes %/min momentum over a lookback window. It retains
// lookback+history minutes of prices so the detector's history window is
// always fully backed by data.
type MomentumTracker struct {
	lookback  time.Duration
	retention time.Duration
	points    []PricePoint
}

func NewMomentumTracker(lookbackMinutes, historyMinutes int) *MomentumTracker {
	return &MomentumTracker{
		lookback:  time.Duration(lookbackMinutes) * time.Minute,
		retention: time.Duration(lookbackMinutes+historyMinutes) * time.Minute,
	}
}

// Update appends the sample, prunes stale points and returns the momentum at
// ts. Returns 0 when there is no history, no point inside the lookback
// window, or zero elapsed time (guards divide-by-zero and same-timestamp
// samples).
func (t *MomentumTracker) Update(price float64, ts time.Time) float64 {
	hadHistory := len(t.points) > 0
	t.points = append(t.points, PricePoint{Time: ts, Price: price})
	t.prune(ts)
	if !hadHistory {
		return 0
	}
	return t.momentumAt(price, ts)
}

func (t *MomentumTracker) prune(ts time.Time) {
	cutoff := ts.Add(-t.retention)
	i := 0
	for i < len(t.points) && t.points[i].Time.Before(cutoff) {
		i++
	}
	t.points = t.points[i:]
}

// momentumAt measures against the earliest point in [ts−lookback, ts).
func (t *MomentumTracker) momentumAt(price float64, ts time.Time) float64 {
	windowStart := ts.Add(-t.lookback)
	var start *PricePoint
	for i := range t.points {
		p := &t.points[i]
		if p.Time.Before(windowStart) || !p.Time.Before(ts) {
			continue
		}
		start = p
		break
	}
	if start == nil {
		return 0
	}
	elapsedMin := ts.Sub(start.Time).Minutes()
	if elapsedMin <= 0 {
		return 0
	}
	changePct := (price - start.Price) / start.Price * 100
	return changePct / elapsedMin
}

// Len reports how many price points are retained.
func (t *MomentumTracker) Len() int { return len(t.points) }

// Points returns the retained history (read-only use).
func (t *MomentumTracker) Points() []PricePoint { return t.points }

// ExtremeDetector flags momentum values outside an adaptive band over a
// trailing history window.
type ExtremeDetector struct {
	window       time.Duration
	minRequired  float64 // history/resolution − 1, warm-up guard
	stdThreshold float64
	points       []MomentumPoint
	fallbackBand float64
}

func NewExtremeDetector(historyMinutes, resolutionMinutes int, stdThreshold float64) *ExtremeDetector {
	return &ExtremeDetector{
		window:       time.Duration(historyMinutes) * time.Minute,
		minRequired:  float64(historyMinutes)/float64(resolutionMinutes) - 1,
		stdThreshold: stdThreshold,
		fallbackBand: 0.01,
	}
}

// IsExtreme evaluates the candidate momentum against history plus the
// candidate itself, without committing it. During warm-up (too few samples)
// it always reports false.
func (d *ExtremeDetector) IsExtreme(momentum float64, ts time.Time) bool {
	cutoff := ts.Add(-d.window)
	recent := make([]float64, 0, len(d.points)+1)
	for _, p := range d.points {
		if !p.Time.Before(cutoff) {
			recent = append(recent, p.Momentum)
		}
	}
	recent = append(recent, momentum)

	if float64(len(recent)) < d.minRequired {
		return false
	}

	mean, std := meanStd(recent)
	high := mean + d.stdThreshold*std
	low := mean - d.stdThreshold*std
	if std == 0 {
		// Flat series: fall back to a fixed band so a genuine jump still
		// registers.
		high = mean + d.fallbackBand
		low = mean - d.fallbackBand
	}
	return momentum > high || momentum < low
}

// Add commits the momentum sample and prunes the history window.
func (d *ExtremeDetector) Add(momentum float64, ts time.Time) {
	d.points = append(d.points, MomentumPoint{Time: ts, Momentum: momentum})
	cutoff := ts.Add(-d.window)
	i := 0
	for i < len(d.points) && d.points[i].Time.Before(cutoff) {
		i++
	}
	d.points = d.points[i:]
}

// Len reports how many momentum points are retained.
func (d *ExtremeDetector) Len() int { return len(d.points) }

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

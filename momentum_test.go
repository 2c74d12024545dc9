// FILE: momentum_test.go

package main

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteSeries(start time.Time, prices []float64) []PricePoint {
	pts := make([]PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = PricePoint{Time: start.Add(time.Duration(i) * time.Minute), Price: p}
	}
	return pts
}

func TestMomentumTrackerFirstSampleIsZero(t *testing.T) {
	tr := NewMomentumTracker(30, 60)
	got := tr.Update(50000, time.Now())
	assert.Equal(t, 0.0, got)
}

func TestMomentumTrackerFlatSeries(t *testing.T) {
	tr := NewMomentumTracker(30, 60)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, pt := range minuteSeries(start, []float64{100, 100, 100, 100}) {
		got := tr.Update(pt.Price, pt.Time)
		assert.Equal(t, 0.0, got, "sample %d", i)
	}
}

func TestMomentumTrackerPercentPerMinute(t *testing.T) {
	tr := NewMomentumTracker(30, 60)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tr.Update(1000, start)
	// +0.1% over one minute.
	got := tr.Update(1001, start.Add(time.Minute))
	assert.InDelta(t, 0.1, got, 1e-9)

	// +1% over the two minutes since the earliest in-window point.
	got = tr.Update(1010, start.Add(2*time.Minute))
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestMomentumTrackerUsesEarliestPointInLookback(t *testing.T) {
	tr := NewMomentumTracker(2, 4)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tr.Update(100, start)
	tr.Update(100, start.Add(time.Minute))
	tr.Update(105, start.Add(2*time.Minute))

	// At minute 3 the lookback window is (minute 1, minute 3]; the earliest
	// eligible point is minute 1 at 100, two minutes back.
	got := tr.Update(105, start.Add(3*time.Minute))
	assert.InDelta(t, 2.5, got, 1e-9)
}

func TestMomentumTrackerPrunesBeyondRetention(t *testing.T) {
	tr := NewMomentumTracker(2, 3)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		tr.Update(100+float64(i), start.Add(time.Duration(i)*time.Minute))
	}
	// Retention is lookback+history = 5 minutes: the sample at the cutoff
	// plus the five newer ones.
	assert.LessOrEqual(t, tr.Len(), 6)
	cutoff := start.Add(19 * time.Minute).Add(-5 * time.Minute)
	for _, p := range tr.Points() {
		assert.False(t, p.Time.Before(cutoff))
	}
}

func TestMomentumTrackerRetentionProperty(t *testing.T) {
	// For any sequence of sample gaps, no retained point is ever older than
	// lookback+history minutes.
	prop := func(gaps []uint8) bool {
		tr := NewMomentumTracker(2, 3)
		ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		for _, g := range gaps {
			ts = ts.Add(time.Duration(g%10) * time.Minute)
			tr.Update(100, ts)
			cutoff := ts.Add(-5 * time.Minute)
			for _, p := range tr.Points() {
				if p.Time.Before(cutoff) {
					return false
				}
			}
		}
		return true
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Error(err)
	}
}

func TestExtremeDetectorWarmup(t *testing.T) {
	// minRequired = 60/1 - 1 = 59 samples; anything earlier is never extreme.
	d := NewExtremeDetector(60, 1, 1.0)
	now := time.Now()
	assert.False(t, d.IsExtreme(1000, now))
	d.Add(1000, now)
	assert.False(t, d.IsExtreme(-1000, now.Add(time.Minute)))
}

func TestExtremeDetectorFlagsOutlier(t *testing.T) {
	d := NewExtremeDetector(4, 1, 1.0)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	d.Add(0, start)
	d.Add(0, start.Add(time.Minute))

	// History [0, 0] plus candidate 2.5: mean 0.833, σ 1.178, upper band
	// 2.011 — the candidate clears it.
	assert.True(t, d.IsExtreme(2.5, start.Add(2*time.Minute)))
	d.Add(2.5, start.Add(2*time.Minute))

	// History [0, 0, 2.5] plus candidate 2.5: mean 1.25, σ 1.25, upper band
	// exactly 2.5. The comparison is strict, so this is not extreme.
	assert.False(t, d.IsExtreme(2.5, start.Add(3*time.Minute)))
}

func TestExtremeDetectorZeroStdFallbackBand(t *testing.T) {
	d := NewExtremeDetector(3, 1, 1.0)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d.Add(1.0, start)
	d.Add(1.0, start.Add(time.Minute))

	// The candidate matching the flat history keeps σ at 0, so the
	// mean ± 0.01 fallback band applies and holds it inside.
	assert.False(t, d.IsExtreme(1.0, start.Add(2*time.Minute)))

	// A diverging candidate is part of the σ computation itself:
	// [1.0, 1.0, 1.009] gives σ≈0.0042 and an upper bound ≈1.0072, so the
	// adaptive band (not the fallback) flags it.
	assert.True(t, d.IsExtreme(1.009, start.Add(2*time.Minute)))
	assert.True(t, d.IsExtreme(1.2, start.Add(2*time.Minute)))
}

func TestExtremeDetectorPrunesHistory(t *testing.T) {
	d := NewExtremeDetector(3, 1, 1.0)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		d.Add(float64(i), start.Add(time.Duration(i)*time.Minute))
	}
	assert.LessOrEqual(t, d.Len(), 4)
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{0, 0, 2.5, 2.5})
	require.InDelta(t, 1.25, mean, 1e-9)
	require.InDelta(t, 1.25, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

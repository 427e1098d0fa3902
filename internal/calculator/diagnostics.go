package calculator

import (
	"errors"
	"math"
	"sort"
	"time"

	"ChartPress/internal/model"
)

// Gap is a pause between two consecutive bars longer than the threshold.
type Gap struct {
	From     time.Time
	To       time.Time
	Duration time.Duration
}

// DayCount is the number of bars on one calendar date.
type DayCount struct {
	Date   string // 2006-01-02
	Points int
}

// IntervalCount is how often a bar-to-bar spacing occurs.
type IntervalCount struct {
	Interval time.Duration
	Count    int
}

// Diagnosis summarizes the shape and quality of a bar set.
type Diagnosis struct {
	Points      int
	Missing     int // bars without a usable close
	TradingDays int
	First       time.Time
	Last        time.Time
	PerDay      []DayCount
	Gaps        []Gap
	Intervals   []IntervalCount // most frequent first, at most 5
	Open        float64
	Close       float64
	High        float64
	Low         float64
	CloseLow    float64
	CloseHigh   float64
}

// Diagnose inspects bars for gaps above gapThreshold, per-day coverage and
// the distribution of sampling intervals.
func Diagnose(bars []model.OHLCV, gapThreshold time.Duration) (*Diagnosis, error) {
	if len(bars) == 0 {
		return nil, errors.New("no bars to diagnose")
	}
	sorted := make([]model.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	d := &Diagnosis{
		Points:      len(sorted),
		TradingDays: TradingDays(sorted),
		First:       sorted[0].Time,
		Last:        sorted[len(sorted)-1].Time,
		Open:        sorted[0].Open,
		Close:       sorted[len(sorted)-1].Close,
		High:        math.Inf(-1),
		Low:         math.Inf(1),
	}

	intervals := make(map[time.Duration]int)
	for i, b := range sorted {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			d.Missing++
		}
		if b.High > d.High {
			d.High = b.High
		}
		if b.Low < d.Low {
			d.Low = b.Low
		}

		date := b.Time.Format("2006-01-02")
		if n := len(d.PerDay); n == 0 || d.PerDay[n-1].Date != date {
			d.PerDay = append(d.PerDay, DayCount{Date: date})
		}
		d.PerDay[len(d.PerDay)-1].Points++

		if i == 0 {
			continue
		}
		step := b.Time.Sub(sorted[i-1].Time)
		intervals[step]++
		if step > gapThreshold {
			d.Gaps = append(d.Gaps, Gap{From: sorted[i-1].Time, To: b.Time, Duration: step})
		}
	}

	d.CloseLow, d.CloseHigh = CloseRange(ExtractCloses(sorted))

	for iv, c := range intervals {
		d.Intervals = append(d.Intervals, IntervalCount{Interval: iv, Count: c})
	}
	sort.Slice(d.Intervals, func(i, j int) bool {
		if d.Intervals[i].Count != d.Intervals[j].Count {
			return d.Intervals[i].Count > d.Intervals[j].Count
		}
		return d.Intervals[i].Interval < d.Intervals[j].Interval
	})
	if len(d.Intervals) > 5 {
		d.Intervals = d.Intervals[:5]
	}
	return d, nil
}

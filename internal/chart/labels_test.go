package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ChartPress/internal/model"
)

func TestDayBoundaries(t *testing.T) {
	var bars []model.OHLCV
	bars = append(bars, session(at(2024, 3, 4, 9, 0), 10, 5*time.Minute, 100)...)
	bars = append(bars, session(at(2024, 3, 5, 9, 0), 10, 5*time.Minute, 100)...)
	bars = append(bars, session(at(2024, 3, 6, 9, 0), 4, 5*time.Minute, 100)...)
	s := mustSeries(bars)

	bounds := DayBoundaries(s)

	assert.Equal(t, []model.DayBoundary{
		{Index: 0, Label: "04 Mar", Anchor: 5},
		{Index: 10, Label: "05 Mar", Anchor: 15},
		{Index: 20, Label: "06 Mar", Anchor: 21.5},
	}, bounds)
}

func TestDayBoundaries_Empty(t *testing.T) {
	assert.Empty(t, DayBoundaries(model.Series{}))
}

func TestFilterLabels(t *testing.T) {
	b := func(anchors ...float64) []model.DayBoundary {
		out := make([]model.DayBoundary, len(anchors))
		for i, a := range anchors {
			out[i] = model.DayBoundary{Index: i, Anchor: a}
		}
		return out
	}
	anchors := func(bs []model.DayBoundary) []float64 {
		out := make([]float64, len(bs))
		for i, x := range bs {
			out[i] = x.Anchor
		}
		return out
	}

	tests := []struct {
		name string
		in   []model.DayBoundary
		min  float64
		want []float64
	}{
		{"well spaced", b(5, 20, 40), 10, []float64{5, 20, 40}},
		{"middle crowded", b(5, 10, 30), 10, []float64{5, 30}},
		{"last crowds previous", b(0, 20, 25), 10, []float64{0, 20, 25}},
		{"last kept after dropped middle", b(0, 2, 4), 10, []float64{0, 4}},
		{"single", b(3), 10, []float64{3}},
		{"zero distance keeps all", b(1, 1.5, 2), 0, []float64{1, 1.5, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterLabels(tt.in, tt.min)
			assert.Equal(t, tt.want, anchors(got))
			assert.Equal(t, tt.in[len(tt.in)-1], got[len(got)-1])
		})
	}
}

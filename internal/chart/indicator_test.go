package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartPress/internal/model"
)

func twoDays(day1, day2 []float64) model.Series {
	bars := withCloses(at(2024, 3, 4, 9, 0), 5*time.Minute, day1...)
	bars = append(bars, withCloses(at(2024, 3, 5, 9, 0), 5*time.Minute, day2...)...)
	return mustSeries(bars)
}

func TestReferenceClose(t *testing.T) {
	ref, ok := ReferenceClose(twoDays([]float64{140, 150}, []float64{148, 145}))
	assert.True(t, ok)
	assert.Equal(t, 150.0, ref)

	_, ok = ReferenceClose(mustSeries(withCloses(at(2024, 3, 4, 9, 0), time.Minute, 1, 2, 3)))
	assert.False(t, ok)

	_, ok = ReferenceClose(model.Series{})
	assert.False(t, ok)
}

func TestPlaceBadge_Down(t *testing.T) {
	opts := DefaultOptions()
	s := twoDays([]float64{140, 150}, []float64{148, 145})
	view := ViewportFor(s, opts)

	b := PlaceBadge(s, 150, view, opts)

	assert.Equal(t, DirectionDown, b.Direction)
	assert.Equal(t, opts.Palette.Down, b.Color)
	assert.Equal(t, DateAbove, b.Ordering)
	assert.Equal(t, [3]string{"05 Mar", "145.00", "▼"}, b.Lines)
	assert.Equal(t, 145.0, b.Current)
	assert.Equal(t, 150.0, b.Reference)
}

func TestPlaceBadge_Up(t *testing.T) {
	opts := DefaultOptions()
	s := twoDays([]float64{100, 101}, []float64{102, 103.456})
	view := ViewportFor(s, opts)

	b := PlaceBadge(s, 101, view, opts)

	assert.Equal(t, DirectionUp, b.Direction)
	assert.Equal(t, opts.Palette.Up, b.Color)
	assert.Equal(t, ArrowAbove, b.Ordering)
	assert.Equal(t, [3]string{"▲", "103.46", "05 Mar"}, b.Lines)
}

func TestPlaceBadge_EqualCloseIsUp(t *testing.T) {
	opts := DefaultOptions()
	s := twoDays([]float64{100, 101}, []float64{100, 101})

	b := PlaceBadge(s, 101, ViewportFor(s, opts), opts)

	assert.Equal(t, DirectionUp, b.Direction)
}

func TestPlaceBadge_SideWithMoreRoom(t *testing.T) {
	opts := DefaultOptions()

	// Last close at the top of the range: the badge goes below it.
	s := twoDays([]float64{100, 90}, []float64{95, 120})
	b := PlaceBadge(s, 90, ViewportFor(s, opts), opts)
	assert.Less(t, b.CenterY, 120.0)

	// Last close at the bottom: the badge goes above it.
	s = twoDays([]float64{100, 110}, []float64{105, 80})
	b = PlaceBadge(s, 110, ViewportFor(s, opts), opts)
	assert.Greater(t, b.CenterY, 80.0)
}

func TestPlaceBadge_StaysInsideViewport(t *testing.T) {
	opts := DefaultOptions()
	opts.BadgeRightInset = 0
	s := twoDays([]float64{100, 101}, []float64{102, 103})
	view := ViewportFor(s, opts)

	b := PlaceBadge(s, 101, view, opts)

	assert.LessOrEqual(t, b.CenterX+b.Width/2, view.X.Max+1e-9)
	assert.GreaterOrEqual(t, b.CenterX-b.Width/2, view.X.Min-1e-9)
}

func TestPlaceBadge_RendersCircular(t *testing.T) {
	opts := DefaultOptions()
	var bars []model.OHLCV
	bars = append(bars, session(at(2024, 3, 4, 9, 0), 100, 5*time.Minute, 100)...)
	bars = append(bars, session(at(2024, 3, 5, 9, 0), 100, 5*time.Minute, 104)...)

	layout, err := Render("SAP", bars, opts)
	require.NoError(t, err)
	require.NotNil(t, layout.Badge)

	b := layout.Badge
	x0, y0 := layout.DataToPixel(b.CenterX-b.Width/2, b.CenterY-b.Height/2)
	x1, y1 := layout.DataToPixel(b.CenterX+b.Width/2, b.CenterY+b.Height/2)
	assert.InEpsilon(t, x1-x0, y0-y1, 0.01)
}

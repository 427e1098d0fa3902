package chart

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"ChartPress/internal/model"
)

// minSplinePoints is the smallest segment that gets a fitted curve.
const minSplinePoints = 4

// Trace is the drawable form of one segment: a Spline, a Polyline or a Marker.
type Trace interface {
	// Extent returns the index range covered by the trace.
	Extent() (first, last int)
	trace()
}

// Spline is a natural cubic spline through the segment's (index, close)
// pairs, sampled on a uniform grid.
type Spline struct {
	X     []float64
	Y     []float64
	Knots []model.PricePoint
	curve *interp.NaturalCubic
}

// At evaluates the fitted curve at x.
func (s Spline) At(x float64) float64 { return s.curve.Predict(x) }

func (s Spline) Extent() (int, int) { return s.Knots[0].Index, s.Knots[len(s.Knots)-1].Index }
func (Spline) trace() {}

// Polyline joins 2 or 3 points with straight lines.
type Polyline struct {
	Points []model.PricePoint
}

func (p Polyline) Extent() (int, int) { return p.Points[0].Index, p.Points[len(p.Points)-1].Index }
func (Polyline) trace() {}

// Marker is a lone point drawn without a line.
type Marker struct {
	Point model.PricePoint
}

func (m Marker) Extent() (int, int) { return m.Point.Index, m.Point.Index }
func (Marker) trace() {}

// Smooth converts a segment into its trace. Segments of four or more points
// are fitted with a natural cubic spline (zero second derivative at both
// ends) and evaluated at oversample*(n-1)+1 evenly spaced x values; the grid
// contains every knot exactly.
func Smooth(seg model.Segment, oversample int) (Trace, error) {
	n := seg.Len()
	switch {
	case n == 0:
		return nil, fmt.Errorf("empty segment")
	case n == 1:
		return Marker{Point: seg.Points[0]}, nil
	case n < minSplinePoints:
		return Polyline{Points: seg.Points}, nil
	}
	if oversample <= 0 {
		return nil, invalidConfig("oversample factor must be positive, got %d", oversample)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range seg.Points {
		xs[i] = float64(p.Index)
		ys[i] = p.Close
	}
	curve := &interp.NaturalCubic{}
	if err := curve.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fit natural cubic spline: %w", err)
	}

	// Indices inside a segment are consecutive, so the knot spacing is 1 and
	// k/oversample is an integer offset whenever k is a multiple of oversample.
	count := oversample*(n-1) + 1
	gridX := make([]float64, count)
	gridY := make([]float64, count)
	for k := range gridX {
		x := xs[0] + float64(k)/float64(oversample)
		gridX[k] = x
		gridY[k] = curve.Predict(x)
	}
	return Spline{X: gridX, Y: gridY, Knots: seg.Points, curve: curve}, nil
}

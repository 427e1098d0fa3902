package chart

import (
	"fmt"
	"math"
	"strings"

	"ChartPress/internal/calculator"
	"ChartPress/internal/model"
)

// Range is a closed interval on one axis.
type Range struct {
	Min float64
	Max float64
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Viewport is the visible data window: x in index units, y in price.
type Viewport struct {
	X Range
	Y Range
}

// Rect is a box in figure fractions with its origin at the bottom-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Header is the branded band across the top of the figure.
type Header struct {
	Bar         Rect
	Shadow      Rect
	ShadowAlpha float64
	Fill        string
	ShadowColor string
	TextColor   string
	Title       string
	TitleX      float64 // figure fraction, left-aligned
	TitleY      float64 // figure fraction, vertically centered
}

// Tick is a y-axis tick. Hidden ticks keep their gridline slot but draw no label.
type Tick struct {
	Value   float64
	Label   string
	Visible bool
}

// Layout is the fully composed, renderer-independent chart.
type Layout struct {
	Symbol           string
	WidthPx          int
	HeightPx         int
	DPI              float64
	Transparent      bool
	Plot             PlotArea
	View             Viewport
	Header           Header
	Traces           []Trace
	DayLabels        []model.DayBoundary
	Gridlines        []float64 // x positions of vertical gridlines
	YTicks           []Tick
	Badge            *Badge
	BadgeTextSpacing float64
	Palette          Palette
}

// ViewportFor returns the axis window: x from -1 to n so closures take no
// width, y padded by opts.YPaddingFraction of the close range on both sides.
// A flat series is padded relative to its level so the axis never collapses.
func ViewportFor(s model.Series, opts Options) Viewport {
	lo, hi := calculator.CloseRange(s.Closes())
	span := hi - lo
	pad := span * opts.YPaddingFraction
	if span == 0 {
		pad = math.Abs(hi) * opts.YPaddingFraction
		if pad == 0 {
			pad = 1
		}
	}
	return Viewport{
		X: Range{Min: -1, Max: float64(s.Len())},
		Y: Range{Min: lo - pad, Max: hi + pad},
	}
}

// PixelsPerIndex is the horizontal scale of the plot area.
func PixelsPerIndex(view Viewport, opts Options) float64 {
	w, _ := opts.PlotPx()
	return w / view.X.Span()
}

// Compose assembles the final layout from the outputs of the earlier stages.
func Compose(s model.Series, traces []Trace, labels []model.DayBoundary, badge *Badge, view Viewport, opts Options) *Layout {
	w, h := opts.CanvasPx()
	hh := opts.HeaderHeightFraction
	off := opts.HeaderShadowOffset

	gridlines := make([]float64, len(labels))
	for i, l := range labels {
		gridlines[i] = l.Anchor
	}

	return &Layout{
		Symbol:      strings.ToUpper(s.Symbol),
		WidthPx:     w,
		HeightPx:    h,
		DPI:         opts.DPI,
		Transparent: opts.Transparent,
		Plot:        opts.Plot,
		View:        view,
		Header: Header{
			Bar:         Rect{X: 0, Y: 1 - hh, W: 1, H: hh},
			Shadow:      Rect{X: off, Y: 1 - hh - off, W: 1 - off, H: hh},
			ShadowAlpha: opts.HeaderShadowAlpha,
			Fill:        opts.Palette.Header,
			ShadowColor: opts.Palette.Shadow,
			TextColor:   opts.Palette.HeaderText,
			Title:       strings.ToUpper(s.Symbol),
			TitleX:      opts.TitleInset,
			TitleY:      1 - hh/2,
		},
		Traces:           traces,
		DayLabels:        labels,
		Gridlines:        gridlines,
		YTicks:           yTicks(view.Y, opts),
		Badge:            badge,
		BadgeTextSpacing: opts.BadgeTextSpacing,
		Palette:          opts.Palette,
	}
}

// yTicks places nice ticks inside r and hides the topmost label when it
// falls within the top clearance band, where it would collide with the header.
func yTicks(r Range, opts Options) []Tick {
	ticks := niceTicks(r.Min, r.Max, opts.YTickCount)
	if n := len(ticks); n > 0 && ticks[n-1].Value > r.Max-opts.TickClearanceFraction*r.Span() {
		ticks[n-1].Visible = false
	}
	return ticks
}

// niceTicks generates roughly n ticks inside [min, max] on 1/2/2.5/5/10 steps.
func niceTicks(min, max float64, n int) []Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) || max <= min {
		return nil
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Floor(span/step) + 1
		score := math.Abs(count - float64(n))
		if score < bestScore {
			bestScore = score
			bestStep = step
		}
	}

	decimals := 0
	if bestStep < 1 {
		decimals = int(math.Ceil(-math.Log10(bestStep)))
		if frac := bestStep * math.Pow(10, float64(decimals)); math.Abs(frac-math.Round(frac)) > 1e-9 {
			decimals++
		}
	}

	var ticks []Tick
	first := math.Ceil(min/bestStep) * bestStep
	for i := 0; ; i++ {
		v := first + float64(i)*bestStep
		if v > max+bestStep*1e-9 {
			break
		}
		ticks = append(ticks, Tick{Value: v, Label: fmt.Sprintf("%.*f", decimals, v), Visible: true})
	}
	return ticks
}

// DataToPixel maps a data coordinate to canvas pixels, origin top-left.
func (l *Layout) DataToPixel(x, y float64) (px, py float64) {
	fx := l.Plot.Left + (x-l.View.X.Min)/l.View.X.Span()*(l.Plot.Right-l.Plot.Left)
	fy := l.Plot.Bottom + (y-l.View.Y.Min)/l.View.Y.Span()*(l.Plot.Top-l.Plot.Bottom)
	return l.FigureToPixel(fx, fy)
}

// FigureToPixel maps figure fractions to canvas pixels, origin top-left.
func (l *Layout) FigureToPixel(fx, fy float64) (px, py float64) {
	return fx * float64(l.WidthPx), (1 - fy) * float64(l.HeightPx)
}

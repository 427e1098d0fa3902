package chart

import (
	"math"
	"regexp"
	"time"
)

const mmPerInch = 25.4

// PlotArea is the axes box in figure fractions, origin at the bottom-left.
type PlotArea struct {
	Left   float64
	Right  float64
	Bottom float64
	Top    float64
}

// Palette holds the hex colors ("#RRGGBB") used by the layout.
type Palette struct {
	Curve       string
	Up          string
	Down        string
	Header      string
	HeaderText  string
	Shadow      string
	Gridline    string
	Axis        string
	Text        string
	BadgeText   string
	BadgeAccent string
	Background  string
}

// Options is the full configuration surface of the render pipeline.
type Options struct {
	GapThreshold       time.Duration
	OversampleFactor   int
	MinLabelDistancePx float64

	YPaddingFraction      float64
	YTickCount            int
	TickClearanceFraction float64

	HeaderHeightFraction float64
	HeaderShadowOffset   float64
	HeaderShadowAlpha    float64
	TitleInset           float64

	BadgeSizeFraction   float64
	BadgeOffsetFraction float64
	BadgeRightInset     float64
	BadgeTextSpacing    float64

	WidthMM     float64
	HeightMM    float64
	DPI         float64
	Plot        PlotArea
	Transparent bool
	Palette     Palette
}

// DefaultOptions returns the newspaper print profile: 105.6 x 44.45 mm at 300 dpi.
func DefaultOptions() Options {
	return Options{
		GapThreshold:          2 * time.Hour,
		OversampleFactor:      5,
		MinLabelDistancePx:    60,
		YPaddingFraction:      0.10,
		YTickCount:            5,
		TickClearanceFraction: 0.15,
		HeaderHeightFraction:  0.08,
		HeaderShadowOffset:    0.002,
		HeaderShadowAlpha:     0.15,
		TitleInset:            0.03,
		BadgeSizeFraction:     0.08,
		BadgeOffsetFraction:   0.5,
		BadgeRightInset:       0.06,
		BadgeTextSpacing:      0.35,
		WidthMM:               105.6,
		HeightMM:              44.45,
		DPI:                   300,
		Plot:                  PlotArea{Left: 0.08, Right: 0.95, Bottom: 0.12, Top: 0.90},
		Transparent:           true,
		Palette: Palette{
			Curve:       "#FF0000",
			Up:          "#00CC00",
			Down:        "#FF8C00",
			Header:      "#2D68B6",
			HeaderText:  "#FFFFFF",
			Shadow:      "#000000",
			Gridline:    "#ADD8E6",
			Axis:        "#000000",
			Text:        "#000000",
			BadgeText:   "#FFFFFF",
			BadgeAccent: "#FFFF00",
			Background:  "#FFFFFF",
		},
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate reports the first invalid setting wrapped in ErrInvalidConfiguration.
func (o Options) Validate() error {
	if o.GapThreshold <= 0 {
		return invalidConfig("gap threshold must be positive, got %s", o.GapThreshold)
	}
	if o.OversampleFactor <= 0 {
		return invalidConfig("oversample factor must be positive, got %d", o.OversampleFactor)
	}
	if o.MinLabelDistancePx < 0 {
		return invalidConfig("min label distance must not be negative, got %g", o.MinLabelDistancePx)
	}
	if o.WidthMM <= 0 || o.HeightMM <= 0 {
		return invalidConfig("canvas dimensions must be positive, got %gx%g mm", o.WidthMM, o.HeightMM)
	}
	if o.DPI <= 0 {
		return invalidConfig("dpi must be positive, got %g", o.DPI)
	}
	if o.YTickCount < 2 {
		return invalidConfig("y tick count must be at least 2, got %d", o.YTickCount)
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"y padding fraction", o.YPaddingFraction},
		{"tick clearance fraction", o.TickClearanceFraction},
		{"header height fraction", o.HeaderHeightFraction},
		{"header shadow offset", o.HeaderShadowOffset},
		{"header shadow alpha", o.HeaderShadowAlpha},
		{"title inset", o.TitleInset},
		{"badge size fraction", o.BadgeSizeFraction},
		{"badge offset fraction", o.BadgeOffsetFraction},
		{"badge right inset", o.BadgeRightInset},
		{"badge text spacing", o.BadgeTextSpacing},
	}
	for _, f := range fractions {
		if math.IsNaN(f.v) || f.v < 0 || f.v >= 1 {
			return invalidConfig("%s must be in [0, 1), got %g", f.name, f.v)
		}
	}
	if o.BadgeSizeFraction == 0 {
		return invalidConfig("badge size fraction must be positive")
	}
	p := o.Plot
	if p.Left < 0 || p.Bottom < 0 || p.Right > 1 || p.Top > 1 || p.Left >= p.Right || p.Bottom >= p.Top {
		return invalidConfig("plot area %+v is not a box inside the figure", p)
	}
	colors := []struct{ name, hex string }{
		{"curve", o.Palette.Curve}, {"up", o.Palette.Up}, {"down", o.Palette.Down},
		{"header", o.Palette.Header}, {"header text", o.Palette.HeaderText}, {"shadow", o.Palette.Shadow},
		{"gridline", o.Palette.Gridline}, {"axis", o.Palette.Axis}, {"text", o.Palette.Text},
		{"badge text", o.Palette.BadgeText}, {"badge accent", o.Palette.BadgeAccent},
		{"background", o.Palette.Background},
	}
	for _, c := range colors {
		if !hexColor.MatchString(c.hex) {
			return invalidConfig("palette %s color %q is not #RRGGBB", c.name, c.hex)
		}
	}
	return nil
}

// CanvasPx returns the output size in pixels (dimension x DPI).
func (o Options) CanvasPx() (width, height int) {
	width = int(math.Round(o.WidthMM / mmPerInch * o.DPI))
	height = int(math.Round(o.HeightMM / mmPerInch * o.DPI))
	return width, height
}

// PlotPx returns the plot area size in pixels.
func (o Options) PlotPx() (width, height float64) {
	w, h := o.CanvasPx()
	return float64(w) * (o.Plot.Right - o.Plot.Left), float64(h) * (o.Plot.Top - o.Plot.Bottom)
}

// PlotAspect is the physical width:height ratio of the axes box.
func (o Options) PlotAspect() float64 {
	return (o.WidthMM * (o.Plot.Right - o.Plot.Left)) / (o.HeightMM * (o.Plot.Top - o.Plot.Bottom))
}

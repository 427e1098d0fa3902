package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ChartPress/internal/chart"
)

// Stroke widths and font sizes in points; converted with the layout DPI.
const (
	curveWidthPt    = 2.0
	spineWidthPt    = 1.5
	gridWidthPt     = 0.5
	tickLengthPt    = 3.5
	badgeEdgePt     = 1.5
	markerRadiusPt  = 2.0
	titleSizePt     = 8
	dayLabelSizePt  = 9
	yLabelSizePt    = 10
	arrowSizePt     = 10
	priceSizePt     = 9
	badgeDateSizePt = 7
	gridAlpha       = 0.4
	headerCornerPx  = 5
	labelPadPt      = 3.5
)

// PNG rasterizes l and writes the encoded image to w.
func PNG(l *chart.Layout, w io.Writer) error {
	r, err := gochart.PNG(l.WidthPx, l.HeightPx)
	if err != nil {
		return fmt.Errorf("create png renderer: %w", err)
	}
	r.SetDPI(l.DPI)

	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	p := painter{r: r, l: l}
	p.background()
	p.gridlines()
	p.spines()
	for _, tr := range l.Traces {
		p.trace(tr)
	}
	p.dayLabels()
	p.yTicks()
	if l.Badge != nil {
		p.badge(*l.Badge)
	}
	p.header()

	if err := r.Save(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type painter struct {
	r gochart.Renderer
	l *chart.Layout
}

func (p painter) px(pt float64) float64 { return pt * p.l.DPI / 72 }

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func alpha(hex string, a float64) drawing.Color {
	return color(hex).WithAlpha(uint8(math.Round(a * 255)))
}

func round(v float64) int { return int(math.Round(v)) }

func (p painter) data(x, y float64) (int, int) {
	px, py := p.l.DataToPixel(x, y)
	return round(px), round(py)
}

func (p painter) figure(fx, fy float64) (int, int) {
	px, py := p.l.FigureToPixel(fx, fy)
	return round(px), round(py)
}

func (p painter) background() {
	if p.l.Transparent {
		return
	}
	p.r.SetFillColor(color(p.l.Palette.Background))
	p.r.MoveTo(0, 0)
	p.r.LineTo(p.l.WidthPx, 0)
	p.r.LineTo(p.l.WidthPx, p.l.HeightPx)
	p.r.LineTo(0, p.l.HeightPx)
	p.r.Close()
	p.r.Fill()
}

func (p painter) gridlines() {
	p.r.SetStrokeColor(alpha(p.l.Palette.Gridline, gridAlpha))
	p.r.SetStrokeWidth(p.px(gridWidthPt))
	for _, x := range p.l.Gridlines {
		x0, y0 := p.data(x, p.l.View.Y.Min)
		x1, y1 := p.data(x, p.l.View.Y.Max)
		p.r.MoveTo(x0, y0)
		p.r.LineTo(x1, y1)
		p.r.Stroke()
	}
}

func (p painter) spines() {
	left, bottom := p.figure(p.l.Plot.Left, p.l.Plot.Bottom)
	right, top := p.figure(p.l.Plot.Right, p.l.Plot.Top)
	p.r.SetStrokeColor(color(p.l.Palette.Axis))
	p.r.SetStrokeWidth(p.px(spineWidthPt))
	p.r.MoveTo(left, top)
	p.r.LineTo(left, bottom)
	p.r.LineTo(right, bottom)
	p.r.Stroke()
}

func (p painter) trace(tr chart.Trace) {
	p.r.SetStrokeColor(color(p.l.Palette.Curve))
	p.r.SetStrokeWidth(p.px(curveWidthPt))
	switch t := tr.(type) {
	case chart.Spline:
		p.polyline(t.X, t.Y)
	case chart.Polyline:
		xs := make([]float64, len(t.Points))
		ys := make([]float64, len(t.Points))
		for i, pt := range t.Points {
			xs[i] = float64(pt.Index)
			ys[i] = pt.Close
		}
		p.polyline(xs, ys)
	case chart.Marker:
		x, y := p.data(float64(t.Point.Index), t.Point.Close)
		p.r.SetFillColor(color(p.l.Palette.Curve))
		p.r.Circle(p.px(markerRadiusPt), x, y)
		p.r.Fill()
	}
}

func (p painter) polyline(xs, ys []float64) {
	for i := range xs {
		x, y := p.data(xs[i], ys[i])
		if i == 0 {
			p.r.MoveTo(x, y)
			continue
		}
		p.r.LineTo(x, y)
	}
	p.r.Stroke()
}

func (p painter) dayLabels() {
	_, bottom := p.figure(p.l.Plot.Left, p.l.Plot.Bottom)
	tick := round(p.px(tickLengthPt))
	pad := round(p.px(labelPadPt))

	p.r.SetFontColor(color(p.l.Palette.Text))
	p.r.SetFontSize(dayLabelSizePt)
	p.r.SetStrokeColor(color(p.l.Palette.Axis))
	p.r.SetStrokeWidth(p.px(spineWidthPt) / 2)
	for _, lbl := range p.l.DayLabels {
		x, _ := p.data(lbl.Anchor, p.l.View.Y.Min)
		p.r.MoveTo(x, bottom)
		p.r.LineTo(x, bottom+tick)
		p.r.Stroke()

		box := p.r.MeasureText(lbl.Label)
		p.r.Text(lbl.Label, x-box.Width()/2, bottom+tick+pad+box.Height())
	}
}

func (p painter) yTicks() {
	left, _ := p.figure(p.l.Plot.Left, p.l.Plot.Bottom)
	tick := round(p.px(tickLengthPt))
	pad := round(p.px(labelPadPt))

	p.r.SetFontColor(color(p.l.Palette.Text))
	p.r.SetFontSize(yLabelSizePt)
	p.r.SetStrokeColor(color(p.l.Palette.Axis))
	p.r.SetStrokeWidth(p.px(spineWidthPt) / 2)
	for _, t := range p.l.YTicks {
		_, y := p.data(p.l.View.X.Min, t.Value)
		p.r.MoveTo(left-tick, y)
		p.r.LineTo(left, y)
		p.r.Stroke()
		if !t.Visible {
			continue
		}
		box := p.r.MeasureText(t.Label)
		p.r.Text(t.Label, left-tick-pad-box.Width(), y+box.Height()/2)
	}
}

func (p painter) badge(b chart.Badge) {
	cx, cy := p.data(b.CenterX, b.CenterY)
	x0, y0 := p.l.DataToPixel(b.CenterX-b.Width/2, b.CenterY-b.Height/2)
	x1, y1 := p.l.DataToPixel(b.CenterX+b.Width/2, b.CenterY+b.Height/2)
	rx, ry := (x1-x0)/2, (y0-y1)/2

	p.r.SetFillColor(color(b.Color))
	p.r.SetStrokeColor(color(p.l.Palette.BadgeText))
	p.r.SetStrokeWidth(p.px(badgeEdgePt))
	p.r.ArcTo(cx, cy, rx, ry, 0, 2*math.Pi)
	p.r.Close()
	p.r.FillStroke()

	// Lines sit at +spacing, 0 and -spacing of the radius from the center.
	offsets := [3]float64{-p.l.BadgeTextSpacing * ry, 0, p.l.BadgeTextSpacing * ry}
	arrowLine := 0
	if b.Ordering == chart.DateAbove {
		arrowLine = 2
	}
	for i, text := range b.Lines {
		y := float64(cy) + offsets[i]
		switch {
		case i == arrowLine:
			p.arrow(cx, round(y), b.Direction)
		case i == 1:
			p.centeredText(text, cx, y, priceSizePt, p.l.Palette.BadgeText)
		default:
			p.centeredText(text, cx, y, badgeDateSizePt, p.l.Palette.BadgeAccent)
		}
	}
}

// arrow draws a filled triangle; the default font has no arrow glyphs.
func (p painter) arrow(cx, cy int, dir chart.Direction) {
	h := p.px(arrowSizePt) * 0.7
	half := round(h / 2)
	w := round(h * 0.6)
	p.r.SetFillColor(color(p.l.Palette.BadgeAccent))
	if dir == chart.DirectionUp {
		p.r.MoveTo(cx, cy-half)
		p.r.LineTo(cx+w, cy+half)
		p.r.LineTo(cx-w, cy+half)
	} else {
		p.r.MoveTo(cx, cy+half)
		p.r.LineTo(cx+w, cy-half)
		p.r.LineTo(cx-w, cy-half)
	}
	p.r.Close()
	p.r.Fill()
}

func (p painter) centeredText(text string, cx int, cy, size float64, hex string) {
	p.r.SetFontSize(size)
	p.r.SetFontColor(color(hex))
	box := p.r.MeasureText(text)
	p.r.Text(text, cx-box.Width()/2, round(cy)+box.Height()/2)
}

func (p painter) header() {
	h := p.l.Header
	p.r.SetFillColor(alpha(h.ShadowColor, h.ShadowAlpha))
	p.roundedRect(h.Shadow)
	p.r.Fill()

	p.r.SetFillColor(color(h.Fill))
	p.roundedRect(h.Bar)
	p.r.Fill()

	p.r.SetFontSize(titleSizePt)
	p.r.SetFontColor(color(h.TextColor))
	x, y := p.figure(h.TitleX, h.TitleY)
	box := p.r.MeasureText(h.Title)
	p.r.Text(h.Title, x, y+box.Height()/2)
}

// roundedRect traces rect (figure fractions) with rounded corners.
func (p painter) roundedRect(rect chart.Rect) {
	left, bottom := p.figure(rect.X, rect.Y)
	right, top := p.figure(rect.X+rect.W, rect.Y+rect.H)
	rad := headerCornerPx
	if m := min(right-left, bottom-top) / 2; rad > m {
		rad = m
	}
	r := float64(rad)
	p.r.MoveTo(left+rad, top)
	p.r.LineTo(right-rad, top)
	p.r.ArcTo(right-rad, top+rad, r, r, -math.Pi/2, math.Pi/2)
	p.r.LineTo(right, bottom-rad)
	p.r.ArcTo(right-rad, bottom-rad, r, r, 0, math.Pi/2)
	p.r.LineTo(left+rad, bottom)
	p.r.ArcTo(left+rad, bottom-rad, r, r, math.Pi/2, math.Pi/2)
	p.r.LineTo(left, top+rad)
	p.r.ArcTo(left+rad, top+rad, r, r, math.Pi, math.Pi/2)
	p.r.Close()
}

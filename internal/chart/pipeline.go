package chart

import "ChartPress/internal/model"

// Render runs the full pipeline for one symbol: normalize, segment, smooth,
// label, indicate and compose. It is a pure function of its inputs. On any
// failure it returns a *StageError and no layout.
func Render(symbol string, records []model.OHLCV, opts Options) (*Layout, error) {
	fail := func(stage Stage, err error) (*Layout, error) {
		return nil, &StageError{Stage: stage, Symbol: symbol, Err: err}
	}

	if err := opts.Validate(); err != nil {
		return fail(StageConfigure, err)
	}

	series, err := Normalize(symbol, records)
	if err != nil {
		return fail(StageNormalize, err)
	}

	segments := SegmentSeries(series, opts.GapThreshold)

	traces := make([]Trace, 0, len(segments))
	for _, seg := range segments {
		tr, err := Smooth(seg, opts.OversampleFactor)
		if err != nil {
			return fail(StageSmooth, err)
		}
		traces = append(traces, tr)
	}

	view := ViewportFor(series, opts)

	minDistance := opts.MinLabelDistancePx / PixelsPerIndex(view, opts)
	labels := FilterLabels(DayBoundaries(series), minDistance)

	var badge *Badge
	if ref, ok := ReferenceClose(series); ok {
		b := PlaceBadge(series, ref, view, opts)
		badge = &b
	}

	return Compose(series, traces, labels, badge, view, opts), nil
}

package model

import "time"

// OHLCV represents a single intraday bar as delivered by a data source.
// A missing close is carried as NaN.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is one cleaned bar placed on the compressed x-axis.
type PricePoint struct {
	Index int // x-coordinate; position in the Series
	Time  time.Time
	Close float64
	Bar   OHLCV
}

// Series is the canonical ordered price history for one symbol.
// Points[i].Index == i and times are strictly increasing.
type Series struct {
	Symbol string
	Points []PricePoint
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Last returns the final point. The series must not be empty.
func (s Series) Last() PricePoint { return s.Points[len(s.Points)-1] }

// Closes returns the close values in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

package contracts

import "time"

// PricePoint is one day of OHLCV data for a symbol.
// Series invariant: one point per calendar date, strictly ascending by
// date, all prices > 0, volume >= 0.
type PricePoint struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Closes extracts the close series from a slice of price points.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// DailyReturns computes day-over-day close returns. The result has
// len(points)-1 entries; entry i is the return from point i to i+1.
func DailyReturns(points []PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}

	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (points[i].Close-prev)/prev)
	}
	return out
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

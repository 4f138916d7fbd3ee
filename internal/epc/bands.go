// Package epc models the energy performance scale: seven lettered bands
// stacked from A (most efficient, top) to G (bottom).
package epc

import (
	"errors"
	"fmt"
)

// MinScore and MaxScore bound a valid rating.
const (
	MinScore = 1
	MaxScore = 100
)

// ErrScoreOutOfRange is returned for scores outside 1..100. Such a score is
// a caller bug; it is never clamped.
var ErrScoreOutOfRange = errors.New("epc score out of range")

// Band is one lettered step of the scale.
type Band struct {
	Letter rune
	Min    int
	Max    int
	Color  string // hex fill used on the chart
}

// Label returns the range caption drawn next to the bar, e.g. "(81-91)".
func (b Band) Label() string {
	return fmt.Sprintf("(%d-%d)", b.Min, b.Max)
}

// Bands lists the scale top to bottom. The index of a band is its vertical
// slot on the chart.
var Bands = [7]Band{
	{Letter: 'A', Min: 92, Max: 100, Color: "#10b981"},
	{Letter: 'B', Min: 81, Max: 91, Color: "#22c55e"},
	{Letter: 'C', Min: 69, Max: 80, Color: "#84cc16"},
	{Letter: 'D', Min: 55, Max: 68, Color: "#eab308"},
	{Letter: 'E', Min: 39, Max: 54, Color: "#f59e0b"},
	{Letter: 'F', Min: 21, Max: 38, Color: "#ef4444"},
	{Letter: 'G', Min: 1, Max: 20, Color: "#dc2626"},
}

// BandFor returns the letter and band index (0 = A .. 6 = G) for a score.
func BandFor(score int) (rune, int, error) {
	if score < MinScore || score > MaxScore {
		return 0, 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	for i, b := range Bands {
		if score >= b.Min && score <= b.Max {
			return b.Letter, i, nil
		}
	}
	// unreachable while Bands covers 1..100
	return 0, 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
}

// YPosition maps a score to a normalized vertical position on the scale,
// 0 at the top edge of band A and 1 at the bottom edge of band G. The marker
// sits in the middle of its band; the score within the band does not move it.
func YPosition(score int) (float64, error) {
	_, idx, err := BandFor(score)
	if err != nil {
		return 0, err
	}
	return (float64(idx) + 0.5) / float64(len(Bands)), nil
}

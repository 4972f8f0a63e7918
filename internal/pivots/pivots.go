// Package pivots derives Fibonacci pivot levels from a single prior
// period's high/low/close.
package pivots

import (
	"math"

	"LevelSentinel/internal/model"
)

// LevelNames orders the seven pivot levels top to bottom.
var LevelNames = []string{"R3", "R2", "R1", "PP", "S1", "S2", "S3"}

// Set holds the seven pivot levels computed from one (H, L, C) triple.
// Immutable; recomputed per request, never cached across bars.
type Set struct {
	PP float64 `json:"pp"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
	R3 float64 `json:"r3"`
	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	S3 float64 `json:"s3"`
}

// Compute derives the pivot set: PP = (H+L+C)/3 and Fibonacci
// extensions of the bar range around it.
func Compute(high, low, close float64) Set {
	pp := (high + low + close) / 3
	r := high - low
	return Set{
		PP: pp,
		R1: pp + r,
		R2: pp + 1.618*r,
		R3: pp + 2*r,
		S1: pp - r,
		S2: pp - 1.618*r,
		S3: pp - 2*r,
	}
}

// FromBar computes the pivot set for one bar.
func FromBar(b model.Bar) Set {
	return Compute(b.High, b.Low, b.Close)
}

// Level returns the named level's price.
func (s Set) Level(name string) float64 {
	switch name {
	case "PP":
		return s.PP
	case "R1":
		return s.R1
	case "R2":
		return s.R2
	case "R3":
		return s.R3
	case "S1":
		return s.S1
	case "S2":
		return s.S2
	default:
		return s.S3
	}
}

// Distances maps each level name to currentPrice minus the level.
func (s Set) Distances(currentPrice float64) map[string]float64 {
	out := make(map[string]float64, len(LevelNames))
	for _, name := range LevelNames {
		out[name] = currentPrice - s.Level(name)
	}
	return out
}

// Closest identifies the single pivot nearest to current price across
// both timeframes.
type Closest struct {
	Timeframe string  `json:"timeframe"`
	Level     string  `json:"level"`
	Price     float64 `json:"price"`
	Distance  float64 `json:"distance"`
}

// ClosestTo ranks all 14 levels (7 daily + 7 weekly) by absolute
// distance from the current price.
func ClosestTo(currentPrice float64, daily, weekly Set) Closest {
	best := Closest{Distance: math.Inf(1)}
	bestAbs := math.Inf(1)

	for _, tf := range []struct {
		name string
		set  Set
	}{{"daily", daily}, {"weekly", weekly}} {
		for _, name := range LevelNames {
			price := tf.set.Level(name)
			d := currentPrice - price
			if abs := math.Abs(d); abs < bestAbs {
				bestAbs = abs
				best = Closest{Timeframe: tf.name, Level: name, Price: price, Distance: d}
			}
		}
	}
	return best
}

package pivots

import (
	"math"
	"testing"

	"LevelSentinel/internal/model"
)

func TestCompute_ExactValues(t *testing.T) {
	s := Compute(110, 90, 100)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"PP", s.PP, 100},
		{"R1", s.R1, 120},
		{"R2", s.R2, 132.36},
		{"R3", s.R3, 140},
		{"S1", s.S1, 80},
		{"S2", s.S2, 67.64},
		{"S3", s.S3, 60},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	a := Compute(17350.25, 17120.75, 17245.5)
	b := Compute(17350.25, 17120.75, 17245.5)
	if a != b {
		t.Errorf("identical inputs produced different sets: %+v vs %+v", a, b)
	}
}

func TestFromBar(t *testing.T) {
	b := model.Bar{High: 110, Low: 90, Close: 100}
	if got := FromBar(b); got.PP != 100 {
		t.Errorf("PP = %v, want 100", got.PP)
	}
}

func TestDistances(t *testing.T) {
	s := Compute(110, 90, 100)
	d := s.Distances(105)

	if d["PP"] != 5 {
		t.Errorf("distance to PP = %v, want 5", d["PP"])
	}
	if d["R1"] != -15 {
		t.Errorf("distance to R1 = %v, want -15", d["R1"])
	}
	if len(d) != 7 {
		t.Errorf("expected 7 distances, got %d", len(d))
	}
}

func TestClosestTo(t *testing.T) {
	daily := Compute(110, 90, 100)  // PP=100
	weekly := Compute(130, 70, 100) // PP=100, R1=160, S1=40

	got := ClosestTo(118, daily, weekly)
	if got.Timeframe != "daily" || got.Level != "R1" {
		t.Fatalf("closest = %s/%s, want daily/R1", got.Timeframe, got.Level)
	}
	if got.Price != 120 || got.Distance != -2 {
		t.Errorf("closest price/distance = %v/%v, want 120/-2", got.Price, got.Distance)
	}
}

func TestClosestTo_PrefersWeeklyWhenNearer(t *testing.T) {
	daily := Compute(110, 90, 100)
	weekly := Compute(104, 96, 101) // tight weekly range hugging price, PP ~100.33

	got := ClosestTo(100.5, daily, weekly)
	if got.Timeframe != "weekly" || got.Level != "PP" {
		t.Errorf("closest = %s/%s, want weekly/PP", got.Timeframe, got.Level)
	}
}

package media

import (
	"math"
	"testing"
)

func TestPlanFit(t *testing.T) {
	tests := []struct {
		name        string
		natural     float64
		target      float64
		repetitions int
	}{
		{name: "loop short clip", natural: 3, target: 7, repetitions: 3},
		{name: "exact multiple still covers", natural: 3, target: 6, repetitions: 3},
		{name: "longer clip trimmed", natural: 12, target: 7, repetitions: 1},
		{name: "equal length", natural: 7, target: 7, repetitions: 1},
		{name: "tiny clip", natural: 0.4, target: 2.9, repetitions: 8},
		{name: "unknown natural length", natural: 0, target: 4, repetitions: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanFit(tt.natural, tt.target)
			if plan.Repetitions != tt.repetitions {
				t.Errorf("repetitions = %d, want %d", plan.Repetitions, tt.repetitions)
			}
			if plan.Trim != tt.target {
				t.Errorf("trim = %v, want exactly %v", plan.Trim, tt.target)
			}
			if tt.natural > 0 && plan.Covered(tt.natural) < tt.target {
				t.Errorf("covered %.3f < target %.3f", plan.Covered(tt.natural), tt.target)
			}
		})
	}
}

func TestPlanFitAlwaysCoversTarget(t *testing.T) {
	for natural := 0.25; natural < 10; natural += 0.35 {
		for target := 0.5; target < 30; target += 0.7 {
			plan := PlanFit(natural, target)
			if plan.Trim != target {
				t.Fatalf("trim %v != target %v", plan.Trim, target)
			}
			if plan.Covered(natural) < target {
				t.Fatalf("natural %.2f target %.2f: covered %.2f", natural, target, plan.Covered(natural))
			}
			if plan.Repetitions > 1 && plan.Covered(natural)-natural > target+1e-9 {
				t.Fatalf("natural %.2f target %.2f: one repetition too many", natural, target)
			}
		}
	}
}

func TestFrameCount(t *testing.T) {
	if got := FrameCount(5, 24); got != 120 {
		t.Errorf("FrameCount(5,24) = %d", got)
	}
	if got := FrameCount(1.01, 24); got != 25 {
		t.Errorf("FrameCount(1.01,24) = %d", got)
	}
}

func TestProceduralColorChannelsVaryIndependently(t *testing.T) {
	first := ProceduralColor(0)
	if first.R != 128 || first.G != 128 || first.B != 128 {
		t.Errorf("frame 0 should be mid grey, got %+v", first)
	}
	c := ProceduralColor(50)
	wantR := uint8(128 + 127*math.Sin(1.0))
	wantG := uint8(128 + 127*math.Sin(0.5))
	wantB := uint8(128 + 127*math.Sin(1.5))
	if c.R != wantR || c.G != wantG || c.B != wantB {
		t.Errorf("frame 50 = %+v, want %d/%d/%d", c, wantR, wantG, wantB)
	}
}

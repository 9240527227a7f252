package media

import "math"

// FitPlan says how to stretch or cut a clip to a target duration.
type FitPlan struct {
	// Repetitions is the number of whole plays of the source (1 = no loop).
	Repetitions int
	// Trim is the final length; always equal to the target.
	Trim float64
}

// Covered is the length available before trimming.
func (p FitPlan) Covered(natural float64) float64 {
	return natural * float64(p.Repetitions)
}

// PlanFit loops a shorter clip floor(target/natural)+1 times and trims; a
// clip at least as long as the target is trimmed from its start.
func PlanFit(natural, target float64) FitPlan {
	if natural <= 0 || natural >= target {
		return FitPlan{Repetitions: 1, Trim: target}
	}
	return FitPlan{
		Repetitions: int(math.Floor(target/natural)) + 1,
		Trim:        target,
	}
}

// FrameCount is the number of frames needed to cover duration.
func FrameCount(duration float64, frameRate int) int {
	return int(math.Ceil(duration*float64(frameRate) - 1e-9))
}

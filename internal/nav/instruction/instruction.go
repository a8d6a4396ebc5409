// Package instruction selects the visual/spoken instruction that should be
// presented for the active step given the remaining distance to its
// maneuver.
package instruction

import "github.com/wayfarer-go/navigator/internal/domain/models"

// SelectVisual picks the VisualInstruction with the smallest trigger
// distance that is still >= remainingM; if none qualify, the instruction
// with the largest trigger distance is returned. Returns nil if the step
// has no visual instructions. Ties are broken by list order.
func SelectVisual(step models.RouteStep, remainingM float64) *models.VisualInstruction {
	instrs := step.VisualInstructions
	if len(instrs) == 0 {
		return nil
	}

	bestIdx := -1
	for i, instr := range instrs {
		if instr.TriggerDistanceBeforeManeuverM < remainingM {
			continue
		}
		if bestIdx == -1 || instr.TriggerDistanceBeforeManeuverM < instrs[bestIdx].TriggerDistanceBeforeManeuverM {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		bestIdx = largestTriggerIndex(instrs)
	}
	return &instrs[bestIdx]
}

func largestTriggerIndex(instrs []models.VisualInstruction) int {
	best := 0
	for i, instr := range instrs {
		if instr.TriggerDistanceBeforeManeuverM > instrs[best].TriggerDistanceBeforeManeuverM {
			best = i
		}
	}
	return best
}

// SelectSpoken applies the same selection rule as SelectVisual over the
// step's spoken instructions.
func SelectSpoken(step models.RouteStep, remainingM float64) *models.SpokenInstruction {
	instrs := step.SpokenInstructions
	if len(instrs) == 0 {
		return nil
	}

	bestIdx := -1
	for i, instr := range instrs {
		if instr.TriggerDistanceBeforeManeuverM < remainingM {
			continue
		}
		if bestIdx == -1 || instr.TriggerDistanceBeforeManeuverM < instrs[bestIdx].TriggerDistanceBeforeManeuverM {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		best := 0
		for i, instr := range instrs {
			if instr.TriggerDistanceBeforeManeuverM > instrs[best].TriggerDistanceBeforeManeuverM {
				best = i
			}
		}
		bestIdx = best
	}
	return &instrs[bestIdx]
}

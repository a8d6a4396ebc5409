package models

import "github.com/wayfarer-go/navigator/pkg/uuid"

// VisualInstructionContent is one line of banner guidance (primary or
// secondary) shown alongside a maneuver.
type VisualInstructionContent struct {
	Text                   string  `json:"text"`
	ManeuverType           string  `json:"maneuver_type,omitempty"`
	ManeuverModifier       string  `json:"maneuver_modifier,omitempty"`
	RoundaboutExitDegrees  *int    `json:"roundabout_exit_degrees,omitempty"`
}

// VisualInstruction is a banner instruction with the distance before the
// maneuver at which it should start being displayed.
type VisualInstruction struct {
	Primary                      VisualInstructionContent  `json:"primary"`
	Secondary                    *VisualInstructionContent `json:"secondary,omitempty"`
	TriggerDistanceBeforeManeuverM float64                 `json:"trigger_distance_before_maneuver_m"`
}

// SpokenInstruction is one logical utterance of spoken guidance.
// UtteranceID is stable per logical utterance and used by hosts for
// at-most-once delivery.
type SpokenInstruction struct {
	Text                         string     `json:"text"`
	SSML                         string     `json:"ssml,omitempty"`
	TriggerDistanceBeforeManeuverM float64  `json:"trigger_distance_before_maneuver_m"`
	UtteranceID                 uuid.UUID  `json:"utterance_id"`
}

package models

import "time"

// UserLocation is one observed fix fed into the navigation controller.
// Value type; immutable once constructed.
type UserLocation struct {
	Coordinate         GeographicCoordinate `json:"coordinate"`
	HorizontalAccuracyM float64             `json:"horizontal_accuracy_m"`
	Course             *CourseOverGround    `json:"course,omitempty"`
	Timestamp          time.Time            `json:"timestamp"`
}

package nav

import (
	"github.com/wayfarer-go/navigator/internal/nav/deviation"
	"github.com/wayfarer-go/navigator/internal/nav/stepadvance"
)

// Config bundles the two policies a Controller needs beyond the route
// itself: when to advance to the next step, and when to declare the user
// off-route.
type Config struct {
	StepAdvance      stepadvance.Config
	DeviationTracking deviation.Config
}

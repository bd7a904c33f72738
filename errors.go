package flowx

import (
	"fmt"
)

// Stages at which a step can fail.
const (
	StageIntegrate = "integrate"
	StageAdvect    = "advect"
	StageMapToGrid = "map_to_grid"
)

// StepError is returned by Simulation.Step when a step fails. The Simulation
// is left in the state it had before the step.
type StepError struct {
	Step  int
	Time  float64
	Stage string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf(
		"flowx: step %d (t = %g) failed during %s: %v",
		e.Step, e.Time, e.Stage, e.Err,
	)
}

func (e *StepError) Unwrap() error { return e.Err }

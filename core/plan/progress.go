package plan

import (
	"math"

	"github.com/pkg/errors"
)

var ErrStepNotFound = errors.New("step not found")

type Progress struct {
	Completed   int  `json:"completed"`
	Total       int  `json:"total"`
	Percent     int  `json:"percent"`
	AllComplete bool `json:"all_complete"`
}

// ComputeProgress returns the completion of steps; Percent is 0 for an empty list.
func ComputeProgress(steps []Step) Progress {
	prog := Progress{Total: len(steps)}
	for _, s := range steps {
		if s.Completed {
			prog.Completed++
		}
	}
	if prog.Total > 0 {
		prog.Percent = int(math.Round(float64(prog.Completed) / float64(prog.Total) * 100))
		prog.AllComplete = prog.Completed == prog.Total
	}
	return prog
}

// AllComplete is true only when steps is non-empty and every step is completed.
func AllComplete(steps []Step) bool {
	return ComputeProgress(steps).AllComplete
}

// Toggle flips the completion flag of the step with the given ID.
// steps is left untouched; the updated copy is returned.
func Toggle(steps []Step, id string) ([]Step, Progress, error) {
	toggled := Clone(steps)
	found := false
	for i := range toggled {
		if toggled[i].ID == id {
			toggled[i].Completed = !toggled[i].Completed
			found = true
			break
		}
	}
	if !found {
		return steps, ComputeProgress(steps), ErrStepNotFound
	}
	return toggled, ComputeProgress(toggled), nil
}

// ToggleAll sets every step to the negation of the current all-complete state.
func ToggleAll(steps []Step) ([]Step, Progress) {
	target := !AllComplete(steps)
	toggled := Clone(steps)
	for i := range toggled {
		toggled[i].Completed = target
	}
	return toggled, ComputeProgress(toggled)
}

func Clone(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return cp
}

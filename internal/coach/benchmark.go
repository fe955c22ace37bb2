package coach

import (
	"strings"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// MergeBenchmark returns list with b merged into the entry whose exercise matches
// case-insensitively, or appended when none does. Supplied fields of b win; zero fields
// keep the stored value.
func MergeBenchmark(list []model.Benchmark, b model.Benchmark) []model.Benchmark {
	out := make([]model.Benchmark, len(list), len(list)+1)
	copy(out, list)

	for i := range out {
		if !strings.EqualFold(out[i].Exercise, b.Exercise) {
			continue
		}
		cur := &out[i]
		cur.Exercise = b.Exercise
		if b.CurrentWeight != 0 {
			cur.CurrentWeight = b.CurrentWeight
		}
		if b.CurrentReps != 0 {
			cur.CurrentReps = b.CurrentReps
		}
		if b.TargetWeight != 0 {
			cur.TargetWeight = b.TargetWeight
		}
		if b.TargetDate != "" {
			cur.TargetDate = b.TargetDate
		}
		return out
	}
	return append(out, b)
}

package lblgen

import (
	"fmt"
	"io"
	"time"
)

// Timings records the wall clock time spent in the stages of a run.
type Timings struct {
	Total          time.Duration
	ObjectCreation time.Duration
	ObjectSetup    time.Duration
	Images         []time.Duration
	SceneRendered  bool // False if the run stopped after object creation.
}

// Report writes the timings in seconds, one stage per line.
func (t *Timings) Report(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Total Time: %v", t.Total.Seconds()),
		fmt.Sprintf("Object Creation Time: %v", t.ObjectCreation.Seconds()),
	}
	if t.SceneRendered {
		lines = append(lines, fmt.Sprintf("Object Setup Time: %v", t.ObjectSetup.Seconds()))
		for i, d := range t.Images {
			lines = append(lines, fmt.Sprintf("Image %d Time: %v", i, d.Seconds()))
		}
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

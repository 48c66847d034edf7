package lblgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingsReport(t *testing.T) {
	timings := Timings{
		Total:          3 * time.Second,
		ObjectCreation: 500 * time.Millisecond,
		ObjectSetup:    time.Second,
		Images:         []time.Duration{750 * time.Millisecond, 250 * time.Millisecond},
		SceneRendered:  true,
	}

	var b strings.Builder
	require.NoError(t, timings.Report(&b))
	assert.Equal(t, "Total Time: 3\nObject Creation Time: 0.5\nObject Setup Time: 1\n"+
		"Image 0 Time: 0.75\nImage 1 Time: 0.25\n", b.String())

	// Only the object creation stage ran.
	timings.SceneRendered = false
	b.Reset()
	require.NoError(t, timings.Report(&b))
	assert.Equal(t, "Total Time: 3\nObject Creation Time: 0.5\n", b.String())
}

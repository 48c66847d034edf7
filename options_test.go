package lblgen

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsDefaults(t *testing.T) {
	o, err := ParseArgs(nil, io.Discard)
	require.NoError(t, err)

	want := DefaultOptions()
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("unexpected options (-want +got):\n%s", diff)
	}
	assert.True(t, o.Crush())
}

func TestParseArgsShortAndLong(t *testing.T) {
	o, err := ParseArgs([]string{
		"-m", "HDPE,PET", "--proportions", "60,40", "-c", "5", "--image_count", "3",
		"-b", "wood.jpg", "--output_location", "out", "-dc", "-s", "99",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"HDPE", "PET"}, o.Materials)
	assert.Equal(t, []int{60, 40}, o.Proportions)
	assert.Equal(t, 5, o.ObjectsPerImage)
	assert.Equal(t, 3, o.ImageCount)
	assert.Equal(t, "wood.jpg", o.Background)
	assert.Equal(t, "out", o.OutputLocation)
	assert.True(t, o.DontCrush)
	assert.False(t, o.Crush())
	require.NotNil(t, o.Seed)
	assert.Equal(t, int64(99), *o.Seed)
}

func TestParseArgsRepeatedLists(t *testing.T) {
	o, err := ParseArgs([]string{"-m", "HDPE", "-m", "PET", "-p", "50", "-p", "50"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"HDPE", "PET"}, o.Materials)
	assert.Equal(t, []int{50, 50}, o.Proportions)
}

func TestParseArgsSplits(t *testing.T) {
	o, err := ParseArgs([]string{"-split", "70,20,10"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []int{70, 90, 100}, o.Splits)
}

func TestParseArgsExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	o, err := ParseArgs([]string{"-o", "~/images"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "images"), o.OutputLocation)
}

func TestParseArgsConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"length mismatch", []string{"-m", "HDPE,PET", "-p", "100"}},
		{"sum", []string{"-m", "HDPE,PET", "-p", "50,40"}},
		{"negative proportion", []string{"-m", "HDPE,PET", "-p", "110,-10"}},
		{"negative count", []string{"-c", "-1"}},
		{"negative images", []string{"-i", "-2"}},
		{"two crush switches", []string{"-rc", "-dc"}},
		{"split sum", []string{"-split", "50,40"}},
		{"jpeg quality", []string{"-jpeg-quality", "0"}},
		{"tfrecord label map", []string{"-tfrecord", "out.record"}},
		{"shards", []string{"-num-shards", "0"}},
		{"unknown flag", []string{"-unknown"}},
		{"bad integer", []string{"-p", "abc"}},
		{"bad seed", []string{"-s", "x"}},
		{"positional", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, io.Discard)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := ParseArgs([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

package lblgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKitti(t *testing.T) {
	ds := &Dataset{
		Images: []DatasetImage{{ID: 0, FileName: "0.jpg"}, {ID: 1, FileName: "1.jpg"}},
		Annotations: []DatasetAnnotation{
			{ID: 0, ImageID: 0, CategoryID: 7, BBox: [4]int{10, 20, 150, 100}},
			{ID: 1, ImageID: 0, CategoryID: UnknownCategoryID, BBox: [4]int{0, 0, 120, 90}},
			{ID: 2, ImageID: 9, CategoryID: 7, BBox: [4]int{0, 0, 120, 90}},
		},
		Categories: []DatasetCategory{{ID: 7, Name: "HDPE", Supercategory: "materials"}},
	}

	want := []KITTIAnnotatedFile{
		{
			FilePath: "0.jpg",
			Annotations: []KITTIAnnotation{
				{Coords: [4]float64{10, 20, 160, 120}, Label: "HDPE"},
				{Coords: [4]float64{0, 0, 120, 90}, Label: "DontCare"},
			},
		},
		{FilePath: "1.jpg"},
	}
	assert.Equal(t, want, ToKitti(ds))
}

func TestWriteKitti(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kitti")
	data := []KITTIAnnotatedFile{
		{
			FilePath:    "0.jpg",
			Annotations: []KITTIAnnotation{{Coords: [4]float64{10, 20, 160, 120}, Label: "HDPE"}},
		},
		{FilePath: "1.jpg"},
	}
	require.NoError(t, WriteKitti(dir, data))

	content, err := os.ReadFile(filepath.Join(dir, "0.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"HDPE 0.0 0 0.0 10.00 20.00 160.00 120.00 0.0 0.0 0.0 0.0 0.0 0.0 0.0\n",
		string(content))

	content, err = os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	assert.Empty(t, content)
}

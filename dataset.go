package lblgen

// The dataset description written at the end of a run.

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// MinAnnotationExtent is the exclusive lower bound of width + height for a bounding box to be
// annotated. Smaller boxes, including the invisible zero box, are skipped.
const MinAnnotationExtent = 200

// UnknownCategoryID is the category ID of objects whose material cannot be resolved.
const UnknownCategoryID = -1

// DatasetFileName is the name of the dataset description in the output directory.
const DatasetFileName = "info.json"

// DatasetInfo describes the dataset as a whole.
type DatasetInfo struct {
	Description string      `json:"description"`
	Version     interface{} `json:"version"`
	Year        int         `json:"year"`
	DateCreated string      `json:"date_created"`
}

// DatasetImage describes a rendered image.
type DatasetImage struct {
	ID           int    `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileName     string `json:"file_name"`
	DateCaptured string `json:"date_captured"`
}

// DatasetAnnotation is the label of one object in one image.
type DatasetAnnotation struct {
	ID           int    `json:"id"`
	ImageID      int    `json:"image_id"`
	CategoryID   int    `json:"category_id"`
	Segmentation []int  `json:"segmentation"`
	Area         int    `json:"area"`
	BBox         [4]int `json:"bbox"` // x, y, width, height.
	IsCrowd      int    `json:"iscrowd"`
}

// Box returns the annotation's bounding box.
func (a DatasetAnnotation) Box() BoundingBox {
	return BoundingBox{X: a.BBox[0], Y: a.BBox[1], Width: a.BBox[2], Height: a.BBox[3]}
}

// DatasetCategory is a flattened category of the configuration.
type DatasetCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// Dataset is the description of a generated dataset.
type Dataset struct {
	Info        DatasetInfo         `json:"info"`
	Images      []DatasetImage      `json:"images"`
	Annotations []DatasetAnnotation `json:"annotations"`
	Categories  []DatasetCategory   `json:"categories"`
}

// DatasetImageName returns the file name of the image with the given ID.
func DatasetImageName(id int) string {
	return fmt.Sprintf("%d.jpg", id)
}

// formatDate formats t as YYYY/M/D without zero padding.
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

// BuildDataset assembles the dataset description for the bounding boxes of all rendered frames.
// frames[i] holds the boxes of image i.
//
// Annotation IDs count every object of every frame, including the ones that are skipped because
// their extent does not exceed MinAnnotationExtent.
func BuildDataset(info InfoConfig, res Resolution, frames [][]LabeledBoundingBox,
	now time.Time) *Dataset {

	date := formatDate(now)
	ds := &Dataset{
		Info: DatasetInfo{
			Description: info.Description,
			Version:     info.Version,
			Year:        now.Year(),
			DateCreated: date,
		},
		Images:      make([]DatasetImage, len(frames)),
		Annotations: []DatasetAnnotation{},
		Categories:  []DatasetCategory{},
	}

	for i := range frames {
		ds.Images[i] = DatasetImage{
			ID:           i,
			Width:        res.Width,
			Height:       res.Height,
			FileName:     DatasetImageName(i),
			DateCaptured: date,
		}
	}

	counter := 0
	skipped := 0
	for imageID, boxes := range frames {
		for _, lb := range boxes {
			b := lb.Box
			if b.Width+b.Height > MinAnnotationExtent {
				ds.Annotations = append(ds.Annotations, DatasetAnnotation{
					ID:         counter,
					ImageID:    imageID,
					CategoryID: CategoryID(info, lb.ObjectName),
					Segmentation: []int{
						b.X, b.Y,
						b.X + b.Width, b.Y - b.Height,
						b.X + b.Width, b.Y,
						b.X, b.Y - b.Height,
					},
					Area:    b.Area(),
					BBox:    [4]int{b.X, b.Y, b.Width, b.Height},
					IsCrowd: 0,
				})
			} else {
				skipped++
			}
			counter++
		}
	}
	if skipped > 0 {
		log.Printf("Skipped %d of %d objects with a bounding box extent of at most %d pixels",
			skipped, counter, MinAnnotationExtent)
	}

	for _, g := range info.Categories {
		for _, e := range g.Entries {
			ds.Categories = append(ds.Categories, DatasetCategory{
				ID:            e.ID,
				Name:          e.Name,
				Supercategory: g.Supercategory,
			})
		}
	}

	return ds
}

// CategoryID resolves an object name to the ID of its material in the "materials"
// supercategory. Duplicate suffixes are ignored. It returns UnknownCategoryID if the object or its
// material is unknown.
func CategoryID(info InfoConfig, objectName string) int {
	material, ok := info.Names[BaseIdentifier(objectName)]
	if !ok {
		return UnknownCategoryID
	}
	id, ok := info.Categories.ID(MaterialsSupercategory, material)
	if !ok {
		return UnknownCategoryID
	}
	return id
}

// WriteDataset writes the dataset as JSON to path. The file is replaced atomically.
func WriteDataset(path string, ds *Dataset) error {
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode the dataset: %v", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	log.Printf("Wrote %d images and %d annotations to %q", len(ds.Images),
		len(ds.Annotations), path)
	return nil
}

// ReadDataset reads a dataset description written by WriteDataset.
func ReadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read dataset %q: %w", path, err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %q: %v", path, err)
	}
	return &ds, nil
}

// Split randomly splits the images into multiple datasets. Annotations follow their image and all
// datasets share the info and categories.
//
// The cumulativeSplits specify the cumulative distribution according to which the images are split
// into the returned datasets. The last value must be 100.
func (ds *Dataset) Split(cumulativeSplits []int, rs *RandomState) ([]*Dataset, error) {
	if err := validateSplits(cumulativeSplits); err != nil {
		return nil, err
	}

	datasets := make([]*Dataset, len(cumulativeSplits))
	for i := range datasets {
		datasets[i] = &Dataset{
			Info:        ds.Info,
			Images:      []DatasetImage{},
			Annotations: []DatasetAnnotation{},
			Categories:  ds.Categories,
		}
	}

	// Assign the images.
	target := make(map[int]int, len(ds.Images))
outer:
	for _, img := range ds.Images {
		r := rs.Intn(100)
		for i, s := range cumulativeSplits {
			if r < s {
				datasets[i].Images = append(datasets[i].Images, img)
				target[img.ID] = i
				continue outer
			}
		}
	}

	for _, a := range ds.Annotations {
		if i, ok := target[a.ImageID]; ok {
			datasets[i].Annotations = append(datasets[i].Annotations, a)
		}
	}

	return datasets, nil
}

// validateSplits checks that cumulativeSplits is non-decreasing and ends at 100.
func validateSplits(cumulativeSplits []int) error {
	if len(cumulativeSplits) == 0 {
		return configErrorf("no split percentages given")
	}
	prev := 0
	for _, s := range cumulativeSplits {
		if s < prev || s > 100 {
			return configErrorf("split percentages must be cumulative in [0, 100], got %v",
				cumulativeSplits)
		}
		prev = s
	}
	if prev != 100 {
		return configErrorf("the split percentages do not add up to 100")
	}
	return nil
}

// SplitFileName returns the file name of split i, such as "info-00.json".
func SplitFileName(i int) string {
	ext := filepath.Ext(DatasetFileName)
	return fmt.Sprintf("%s-%02d%s", DatasetFileName[:len(DatasetFileName)-len(ext)], i, ext)
}

// WriteSplits splits the dataset and writes each part to outDir using SplitFileName.
func WriteSplits(outDir string, ds *Dataset, cumulativeSplits []int, rs *RandomState) error {
	datasets, err := ds.Split(cumulativeSplits, rs)
	if err != nil {
		return err
	}
	for i, d := range datasets {
		if err := WriteDataset(filepath.Join(outDir, SplitFileName(i)), d); err != nil {
			return err
		}
	}
	return nil
}

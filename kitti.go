package lblgen

// KITTI label export.

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// KITTIAnnotation is a single annotation within a KITTI file.
type KITTIAnnotation struct {
	Coords [4]float64 // x1, y1, x2, y2
	Label  string
}

// KITTIAnnotatedFile defines the KITTI annotation structure for a single image.
type KITTIAnnotatedFile struct {
	Annotations []KITTIAnnotation
	FilePath    string // The image file name.
}

// ToKitti converts the dataset to KITTI format. Labels are the category names; annotations
// without a known category are labeled "DontCare".
func ToKitti(ds *Dataset) []KITTIAnnotatedFile {
	names := make(map[int]string, len(ds.Categories))
	for _, c := range ds.Categories {
		if _, ok := names[c.ID]; !ok {
			names[c.ID] = c.Name
		}
	}

	index := make(map[int]int, len(ds.Images))
	kittiData := make([]KITTIAnnotatedFile, len(ds.Images))
	for i, img := range ds.Images {
		kittiData[i].FilePath = img.FileName
		index[img.ID] = i
	}

	for _, a := range ds.Annotations {
		i, ok := index[a.ImageID]
		if !ok {
			continue
		}
		label, ok := names[a.CategoryID]
		if !ok {
			label = "DontCare"
		}
		b := a.Box()
		kittiData[i].Annotations = append(kittiData[i].Annotations, KITTIAnnotation{
			Coords: [4]float64{float64(b.X), float64(b.Y), float64(b.X + b.Width),
				float64(b.Y + b.Height)},
			Label: label,
		})
	}

	return kittiData
}

// WriteKitti writes data to dirPath, one label file per image.
func WriteKitti(dirPath string, data []KITTIAnnotatedFile) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("cannot create directory %q: %v", dirPath, err)
	}

	for _, fileData := range data {
		// Use the image file name with .txt extension as label file name.
		_, baseNoExt, _, err := splitPath(fileData.FilePath)
		if err != nil {
			return err
		}
		if err := writeKittiFile(filepath.Join(dirPath, baseNoExt+".txt"), fileData); err != nil {
			return err
		}
	}

	log.Printf("Wrote KITTI labels for %d images to %q", len(data), dirPath)
	return nil
}

func writeKittiFile(path string, fileData KITTIAnnotatedFile) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(file, &err)

	for _, a := range fileData.Annotations {
		_, err = fmt.Fprintf(file,
			"%s 0.0 0 0.0 %.2f %.2f %.2f %.2f 0.0 0.0 0.0 0.0 0.0 0.0 0.0\n",
			a.Label, a.Coords[0], a.Coords[1], a.Coords[2], a.Coords[3])
		if err != nil {
			return err
		}
	}
	return nil
}

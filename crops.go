package lblgen

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// cropObjectsFromImage returns a crop of img for each annotation with a bounding box that is at
// least partially contained in img, along with the crop file names. The names are derived from
// fileName with a "_<annotation id>" suffix appended before the file extension.
func cropObjectsFromImage(img image.Image, fileName string, annotations []DatasetAnnotation) (
	[]image.Image, []string) {

	crops := make([]image.Image, 0, len(annotations))
	names := make([]string, 0, len(annotations))
	bounds := img.Bounds()
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)

	for _, a := range annotations {
		// Clip the bounding box to the image bounds.
		b := a.Box()
		r := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Add(bounds.Min).Intersect(bounds)
		if r.Empty() {
			continue
		}

		crops = append(crops, imaging.Crop(img, r))
		names = append(names, fmt.Sprintf("%s_%d%s", base, a.ID, ext))
	}
	return crops, names
}

// CropObjects saves a crop of every annotated object of ds to outDir. The images are read from
// imageDir.
func CropObjects(ds *Dataset, imageDir, outDir string, jpegQuality int) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("cannot create crop directory %q: %w", outDir, err)
	}

	byImage := make(map[int][]DatasetAnnotation, len(ds.Images))
	for _, a := range ds.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}

	count := 0
	for _, img := range ds.Images {
		annotations := byImage[img.ID]
		if len(annotations) == 0 {
			continue
		}

		path := filepath.Join(imageDir, img.FileName)
		src, err := loadImage(path)
		if err != nil {
			return fmt.Errorf("failed to load %q: %v", path, err)
		}

		crops, names := cropObjectsFromImage(src, img.FileName, annotations)
		for i, crop := range crops {
			if err := saveImage(filepath.Join(outDir, names[i]), crop, jpegQuality); err != nil {
				return fmt.Errorf("failed to save crop %q: %v", names[i], err)
			}
		}
		count += len(crops)
	}

	log.Printf("Saved %d object crops to %q", count, outDir)
	return nil
}

package lblgen

// TFRecord object detection export.

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFLabel is an entry of the TFRecord label map.
type TFLabel struct {
	ID   int32
	Name string
}

// TFLabelMap assigns TFRecord label IDs, starting at 1, to dataset categories.
type TFLabelMap struct {
	Labels     []TFLabel
	byCategory map[int]TFLabel
}

// NewTFLabelMap numbers the categories of ds in order. Categories that share an ID with an earlier
// category are merged into it.
func NewTFLabelMap(ds *Dataset) *TFLabelMap {
	m := &TFLabelMap{byCategory: make(map[int]TFLabel, len(ds.Categories))}
	for _, c := range ds.Categories {
		if _, ok := m.byCategory[c.ID]; ok {
			continue
		}
		l := TFLabel{ID: int32(len(m.Labels) + 1), Name: c.Name}
		m.Labels = append(m.Labels, l)
		m.byCategory[c.ID] = l
	}
	return m
}

// Label returns the label for a category ID.
func (m *TFLabelMap) Label(categoryID int) (TFLabel, bool) {
	l, ok := m.byCategory[categoryID]
	return l, ok
}

// WriteTo writes the label map in prototxt format.
func (m *TFLabelMap) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, l := range m.Labels {
		fmt.Fprintf(&buf, "item {\n  id: %d\n  name: %q\n}\n", l.ID, l.Name)
	}
	return buf.WriteTo(w)
}

// toTFFeatures converts the annotations of one image to the TFRecord feature map. Annotations
// without a known category are skipped.
func toTFFeatures(img DatasetImage, annotations []DatasetAnnotation, imageDir string,
	labels *TFLabelMap) (TFFeatureMap, error) {

	path := filepath.Join(imageDir, img.FileName)

	// Get the image width and height.
	cfg, format, err := decodeImageConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata of %q: %v", path, err)
	}

	// Read the image data.
	imgData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %v", err)
	}

	f := make(TFFeatureMap, 16)
	f["image/height"] = cfg.Height
	f["image/width"] = cfg.Width
	f["image/filename"] = img.FileName
	f["image/source_id"] = img.FileName
	f["image/encoded"] = imgData
	f["image/format"] = format

	width, height := float32(cfg.Width), float32(cfg.Height)
	var xmins, ymins, xmaxs, ymaxs []float32
	var classes []string
	var classIDs []int64
	for _, a := range annotations {
		l, ok := labels.Label(a.CategoryID)
		if !ok {
			continue
		}
		b := a.Box()
		xmins = append(xmins, float32(b.X)/width)
		ymins = append(ymins, float32(b.Y)/height)
		xmaxs = append(xmaxs, float32(b.X+b.Width)/width)
		ymaxs = append(ymaxs, float32(b.Y+b.Height)/height)
		classes = append(classes, l.Name)
		classIDs = append(classIDs, int64(l.ID))
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write for the dataset to one
// or more TFRecord files stored under recordFilePath (with suffixes added when numShards>1). There
// are never more shards than images. The images are read from imageDir.
//
// The label map for the dataset categories is written to labelMapPath.
func WriteTFRecord(recordFilePath, labelMapPath, imageDir string, ds *Dataset,
	numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards > len(ds.Images) {
		numShards = len(ds.Images)
	}
	if numShards <= 0 {
		numShards = 1
	}
	labels := NewTFLabelMap(ds)

	byImage := make(map[int][]DatasetAnnotation, len(ds.Images))
	for _, a := range ds.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()
	shardSize := int(math.Ceil(float64(len(ds.Images)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one image at a time.
	for i, img := range ds.Images {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return err
				}
				shardFile = nil
			}

			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		features, err := toTFFeatures(img, byImage[img.ID], imageDir, labels)
		if err != nil {
			log.Printf("Failed to convert %q: %v", img.FileName, err)
			continue
		}
		if err := writeTFRecordExample(shardFile, example.New(features)); err != nil {
			return fmt.Errorf("failed to write example for %q: %v", img.FileName, err)
		}
	}

	log.Printf("Wrote %d images to %d TFRecord shards", len(ds.Images), shardIdx+1)
	return saveTFRecordLabelMap(labelMapPath, labels)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the label map to path.
func saveTFRecordLabelMap(path string, labels *TFLabelMap) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	if _, err := labels.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write the label map %q: %v", path, err)
	}
	return nil
}

package lblgen

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/h2non/filetype"
)

// RandomBackground selects a random image from the background directory.
const RandomBackground = "random"

// ChooseBackground returns the path of the background image name in dir. If name is
// RandomBackground, an image file from dir is chosen using rs.
func ChooseBackground(dir, name string, rs *RandomState) (string, error) {
	if name != RandomBackground {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("background %q: %w", name, err)
		}
		return path, nil
	}

	files, err := filesByExtInDir(dir, "")
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	images := files[:0]
	for _, f := range files {
		ok, err := isImageFile(f)
		if err != nil {
			return "", err
		}
		if ok {
			images = append(images, f)
		}
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no background images in %q", dir)
	}

	path := images[rs.Intn(len(images))]
	log.Printf("Using background %q", path)
	return path, nil
}

// isImageFile reports whether the header of the file at path identifies an image format.
func isImageFile(path string) (ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer closeWithErrCheck(f, &err)

	// 261 bytes are sufficient for all supported matchers.
	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return filetype.IsImage(head[:n]), nil
}

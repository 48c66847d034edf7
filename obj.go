package lblgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// OBJMesh holds the vertex positions of a Wavefront OBJ model.
type OBJMesh struct {
	Vertices []mgl64.Vec3
}

// ParseOBJ reads the vertex positions from r. Positions are converted from the
// Y-up convention of OBJ files to Z-up, so (x, y, z) becomes (x, -z, y). All other statements are
// ignored.
func ParseOBJ(r io.Reader) (*OBJMesh, error) {
	mesh := &OBJMesh{}
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "v" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNum)
		}
		var v [3]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate %q", lineNum, fields[i+1])
			}
			v[i] = f
		}
		mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{v[0], -v[2], v[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// ReadOBJ parses the OBJ file at path.
func ReadOBJ(path string) (mesh *OBJMesh, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(f, &err)

	mesh, err = ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %v", path, err)
	}
	return mesh, nil
}

package lblgen

// Wavefront material (.mtl) sidecar files.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// The directive holding the diffuse texture of a material.
const textureDirective = "map_Kd"

// LegacyTextureLine is the zero-based line of the i-th texture reference in files written by the
// mesh exporter: a 3 line header followed by 11 line material blocks.
func LegacyTextureLine(i int) int {
	return 12 + 11*i
}

// materialBlock locates a "newmtl" block within MaterialFile.lines.
type materialBlock struct {
	name    string
	start   int // Line of the newmtl directive.
	end     int // One past the last line of the block.
	texture int // Line of the map_Kd directive, or -1.
}

// MaterialFile is a parsed .mtl file. Lines that are not rewritten are kept verbatim.
type MaterialFile struct {
	lines     []string
	materials []materialBlock
}

// ParseMaterialFile reads an .mtl document from r.
func ParseMaterialFile(r io.Reader) (*MaterialFile, error) {
	m := &MaterialFile{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.lines = append(m.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	m.index()
	return m, nil
}

// ReadMaterialFile reads and parses the .mtl file at path.
func ReadMaterialFile(path string) (m *MaterialFile, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read material file %q: %w", path, err)
	}
	defer closeWithErrCheck(f, &err)

	m, err = ParseMaterialFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse material file %q: %w", path, err)
	}
	return m, nil
}

// index rebuilds the material blocks from the lines.
func (m *MaterialFile) index() {
	m.materials = m.materials[:0]
	for i, line := range m.lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			if n := len(m.materials); n > 0 {
				m.materials[n-1].end = i
			}
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			m.materials = append(m.materials, materialBlock{name: name, start: i, end: len(m.lines),
				texture: -1})
		case textureDirective:
			if n := len(m.materials); n > 0 && m.materials[n-1].texture < 0 {
				m.materials[n-1].texture = i
			}
		}
	}
}

// MaterialNames returns the names of all material blocks in file order.
func (m *MaterialFile) MaterialNames() []string {
	names := make([]string, len(m.materials))
	for i, b := range m.materials {
		names[i] = b.name
	}
	return names
}

// Texture returns the texture referenced by the i-th material block.
func (m *MaterialFile) Texture(i int) (string, bool) {
	if i < 0 || i >= len(m.materials) || m.materials[i].texture < 0 {
		return "", false
	}
	line := strings.TrimSpace(m.lines[m.materials[i].texture])
	return strings.TrimSpace(strings.TrimPrefix(line, textureDirective)), true
}

// SetTexture points the i-th texture reference at skin.
//
// The i-th reference is the map_Kd directive of the i-th material block; it is appended to the
// block if missing. Files with fewer blocks fall back to overwriting LegacyTextureLine(i).
func (m *MaterialFile) SetTexture(i int, skin string) error {
	directive := textureDirective + " " + skin
	if i < 0 {
		return fmt.Errorf("invalid texture index %d", i)
	}

	if i < len(m.materials) {
		b := m.materials[i]
		if b.texture >= 0 {
			m.lines[b.texture] = directive
			return nil
		}

		// Insert after the last non-empty line of the block.
		at := b.end
		for at > b.start+1 && strings.TrimSpace(m.lines[at-1]) == "" {
			at--
		}
		m.lines = append(m.lines, "")
		copy(m.lines[at+1:], m.lines[at:])
		m.lines[at] = directive
		m.index()
		return nil
	}

	line := LegacyTextureLine(i)
	if line >= len(m.lines) {
		return fmt.Errorf("no texture reference %d (file has %d materials and %d lines)",
			i, len(m.materials), len(m.lines))
	}
	m.lines[line] = directive
	m.index()
	return nil
}

// WriteTo writes the document to w.
func (m *MaterialFile) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, line := range m.lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

// Save overwrites the file at path with the document.
func (m *MaterialFile) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write material file %q: %w", path, err)
	}
	defer closeWithErrCheck(f, &err)

	if _, err := m.WriteTo(f); err != nil {
		return fmt.Errorf("cannot write material file %q: %w", path, err)
	}
	return nil
}

// RewriteTextures sets the first count texture references of the .mtl file at path to skin.
func RewriteTextures(path, skin string, count int) error {
	m, err := ReadMaterialFile(path)
	if err != nil {
		return err
	}
	if names := m.MaterialNames(); count > len(names) {
		log.Printf("%q has %d materials %q, rewriting %d texture references by line number",
			path, len(names), names, count-len(names))
	}
	for i := 0; i < count; i++ {
		if err := m.SetTexture(i, skin); err != nil {
			return fmt.Errorf("failed to set texture in %q: %w", path, err)
		}
	}
	return m.Save(path)
}

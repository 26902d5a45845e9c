package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/achilleasa/accel/types"
)

// Read the geometry of a wavefront object file. Only vertex ("v") and face
// ("f") statements are processed; quads are split into two triangles.
func ReadWavefront(r io.Reader) (*Mesh, error) {
	m := &Mesh{}

	lineNum := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return nil, fmt.Errorf("mesh: [line %d] %w", lineNum, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			indices, err := parseFace(lineTokens, len(m.Vertices))
			if err != nil {
				return nil, fmt.Errorf("mesh: [line %d] %w", lineNum, err)
			}
			m.Indices = append(m.Indices, indices...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	return m, nil
}

// Parse a triangular or quad face and return its triangle indices.
func parseFace(lineTokens []string, vertexCount int) ([]uint32, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d`, len(lineTokens)-1)
	}

	var corners [4]uint32
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vToken, _, _ := strings.Cut(lineTokens[arg+1], "/")
		if vToken == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vToken, vertexCount)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		corners[arg] = uint32(vOffset)
	}

	indices := []uint32{corners[0], corners[1], corners[2]}
	if len(lineTokens) == 5 {
		indices = append(indices, corners[0], corners[2], corners[3])
	}
	return indices, nil
}

// Convert a 1-based or negative (relative to the end of the vertex list)
// face index into an offset.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds", index)
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/achilleasa/accel/types"
)

var soupMagic = [4]byte{'T', 'R', 'I', 'S'}

type soupHeader struct {
	Magic       [4]byte
	VertexCount uint32
	IndexCount  uint32
}

// Write mesh as a little-endian triangle soup:
//
//	"TRIS", uint32 vertex count, uint32 index count,
//	float32x3 vertices, uint32 indices
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	hdr := soupHeader{
		Magic:       soupMagic,
		VertexCount: uint32(len(m.Vertices)),
		IndexCount:  uint32(len(m.Indices)),
	}

	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("mesh: writing header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Vertices); err != nil {
		return fmt.Errorf("mesh: writing vertices: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Indices); err != nil {
		return fmt.Errorf("mesh: writing indices: %w", err)
	}
	return bw.Flush()
}

// Read a triangle soup written by Write.
func Read(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)

	var hdr soupHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mesh: reading header: %w", err)
	}
	if hdr.Magic != soupMagic {
		return nil, ErrBadMagic
	}

	m := &Mesh{
		Vertices: make([]types.Vec3, hdr.VertexCount),
	}
	if err := binary.Read(br, binary.LittleEndian, m.Vertices); err != nil {
		return nil, fmt.Errorf("mesh: reading vertices: %w", unexpectedEOF(err))
	}

	// Flat triangle lists keep a nil index buffer.
	if hdr.IndexCount == 0 {
		return m, nil
	}
	m.Indices = make([]uint32, hdr.IndexCount)
	if err := binary.Read(br, binary.LittleEndian, m.Indices); err != nil {
		return nil, fmt.Errorf("mesh: reading indices: %w", unexpectedEOF(err))
	}
	return m, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

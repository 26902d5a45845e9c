package bvh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/achilleasa/accel/types"
)

var byteOrder = binary.LittleEndian

// Write a BVH using the following layout (little-endian, no header):
//
//	uint64 inner node count, inner nodes (64 bytes each)
//	uint64 leaf record count, leaf triangles (36 bytes each)
//	uint64 leaf record count, leaf indices (4 bytes each)
func Write(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)

	if err := writeSection(bw, res.Nodes); err != nil {
		return fmt.Errorf("bvh: writing inner nodes: %w", err)
	}
	if err := writeSection(bw, res.Triangles); err != nil {
		return fmt.Errorf("bvh: writing leaf triangles: %w", err)
	}
	if err := writeSection(bw, res.Indices); err != nil {
		return fmt.Errorf("bvh: writing leaf indices: %w", err)
	}

	return bw.Flush()
}

// Read a BVH written by Write. The stream is trusted; only short reads are
// detected. The returned Result has its root set to the first inner node
// (or the first leaf if the tree has no inner nodes) and its box computed
// from the root.
func Read(r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)
	res := &Result{}

	var err error
	if res.Nodes, err = readSection[InnerNode](br); err != nil {
		return nil, fmt.Errorf("bvh: reading inner nodes: %w", err)
	}
	if res.Triangles, err = readSection[LeafTriangle](br); err != nil {
		return nil, fmt.Errorf("bvh: reading leaf triangles: %w", err)
	}
	if res.Indices, err = readSection[LeafIndex](br); err != nil {
		return nil, fmt.Errorf("bvh: reading leaf indices: %w", err)
	}

	if len(res.Nodes) != 0 {
		res.Root = InnerRef(0)
		res.Box = res.Nodes[0].LeftBox().Enlarge(res.Nodes[0].RightBox())
	} else {
		res.Root = LeafRef(0)
		res.Box = types.EmptyAABB()
		for _, tri := range res.Triangles {
			res.Box = res.Box.Enlarge(tri.Box())
		}
	}
	return res, nil
}

// Write BVH to a file.
func WriteFile(filename string, res *Result) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err = Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read BVH from a file.
func ReadFile(filename string) (*Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func writeSection[T any](w io.Writer, items []T) error {
	if err := binary.Write(w, byteOrder, uint64(len(items))); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return binary.Write(w, byteOrder, items)
}

func readSection[T any](r io.Reader) ([]T, error) {
	var count uint64
	if err := binary.Read(r, byteOrder, &count); err != nil {
		return nil, err
	}

	items := make([]T, count)
	if count == 0 {
		return items, nil
	}
	if err := binary.Read(r, byteOrder, items); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return items, nil
}

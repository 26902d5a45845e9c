package bvh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordSizes(t *testing.T) {
	specs := []struct {
		v       interface{}
		expSize int
	}{
		{InnerNode{}, 64},
		{LeafTriangle{}, 36},
		{LeafIndex(0), 4},
	}

	for i, spec := range specs {
		if got := binary.Size(spec.v); got != spec.expSize {
			t.Fatalf("[spec %d] expected record size %d; got %d", i, spec.expSize, got)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	vertices, indices := randomSoup(200, 5)
	opts := DefaultOptions()
	opts.SpatialSplits = false
	res, err := Construct(vertices, indices, opts)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err = Write(&buf, res); err != nil {
		t.Fatal(err)
	}

	expLen := 3*8 + 64*len(res.Nodes) + 36*len(res.Triangles) + 4*len(res.Indices)
	if buf.Len() != expLen {
		t.Fatalf("expected %d bytes; got %d", expLen, buf.Len())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Nodes) != len(res.Nodes) || len(got.Triangles) != len(res.Triangles) || len(got.Indices) != len(res.Indices) {
		t.Fatalf("expected section lengths (%d, %d, %d); got (%d, %d, %d)",
			len(res.Nodes), len(res.Triangles), len(res.Indices),
			len(got.Nodes), len(got.Triangles), len(got.Indices),
		)
	}
	for i := range res.Nodes {
		if got.Nodes[i] != res.Nodes[i] {
			t.Fatalf("[node %d] expected %+v; got %+v", i, res.Nodes[i], got.Nodes[i])
		}
	}
	for i := range res.Triangles {
		if got.Triangles[i] != res.Triangles[i] {
			t.Fatalf("[triangle %d] expected %+v; got %+v", i, res.Triangles[i], got.Triangles[i])
		}
		if got.Indices[i] != res.Indices[i] {
			t.Fatalf("[index %d] expected %d; got %d", i, res.Indices[i], got.Indices[i])
		}
	}
	if got.Root != res.Root {
		t.Fatalf("expected root %d; got %d", res.Root, got.Root)
	}
	if got.Box != res.Box {
		t.Fatalf("expected box %v; got %v", res.Box, got.Box)
	}
}

func TestReadShortStream(t *testing.T) {
	vertices, indices := randomSoup(50, 6)
	res, err := Construct(vertices, indices, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err = Write(&buf, res); err != nil {
		t.Fatal(err)
	}

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err = Read(bytes.NewReader(truncated))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF; got %v", err)
	}
}

func TestWriteReadFile(t *testing.T) {
	vertices, indices := randomSoup(20, 7)
	res, err := Construct(vertices, indices, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "scene.bvh")
	if err = WriteFile(filename, res); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(filename); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Indices) != len(res.Indices) {
		t.Fatalf("expected %d leaf records; got %d", len(res.Indices), len(got.Indices))
	}
}

func TestStats(t *testing.T) {
	vertices, indices := randomSoup(100, 8)
	res, err := Construct(vertices, indices, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	stats := res.Stats()
	for _, exp := range []string{"Inner nodes", "Leafs", "Mean size", "TOTAL"} {
		if !strings.Contains(strings.ToUpper(stats), strings.ToUpper(exp)) {
			t.Fatalf("expected stats to contain %q; got:\n%s", exp, stats)
		}
	}
}

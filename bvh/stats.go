package bvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of BVH statistics.
func (res *Result) Stats() string {
	leafs, maxLeaf := 0, 0
	run := 0
	for _, rec := range res.Indices {
		run++
		if rec.IsLast() {
			leafs++
			if run > maxLeaf {
				maxLeaf = run
			}
			run = 0
		}
	}
	meanLeaf := float32(0)
	if leafs != 0 {
		meanLeaf = float32(len(res.Indices)) / float32(leafs)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Entry", "Value"})
	table.Append([]string{"Inner nodes", "Count", fmt.Sprintf("%d", len(res.Nodes))})
	table.Append([]string{"", "Size", fmtSize(res.Nodes)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Leafs", "Count", fmt.Sprintf("%d", leafs)})
	table.Append([]string{"", "Records", fmt.Sprintf("%d", len(res.Indices))})
	table.Append([]string{"", "Mean size", fmt.Sprintf("%.2f", meanLeaf)})
	table.Append([]string{"", "Max size", fmt.Sprintf("%d", maxLeaf)})
	table.Append([]string{"", "Triangles", fmtSize(res.Triangles)})
	table.Append([]string{"", "Indices", fmtSize(res.Indices)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Tree", "Root", fmtRef(res.Root)})
	table.Append([]string{"", "Box min", fmt.Sprintf("%v", res.Box.Min)})
	table.Append([]string{"", "Box max", fmt.Sprintf("%v", res.Box.Max)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(res.Nodes, res.Triangles, res.Indices), " ")})

	table.Render()
	return buf.String()
}

func fmtRef(ref ChildRef) string {
	if ref.IsLeaf() {
		return fmt.Sprintf("leaf @%d", ref.LeafOffset())
	}
	return fmt.Sprintf("node %d", ref.NodeIndex())
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}

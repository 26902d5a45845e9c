package bvh

import (
	"sort"
	"time"

	"github.com/achilleasa/accel/log"
	"github.com/achilleasa/accel/types"
	"github.com/chewxy/math32"
)

const (
	// The builder will not evaluate split candidates along an axis if the
	// node extent along it is less than this threshold.
	minSideLength float32 = 1e-6

	// Upper bound for recursion depth. Nodes at this depth become leaves
	// regardless of their size.
	maxDepth = 64
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{traversalCost: 1, intersectionCost: 1}
)

// A split scoring strategy. Lower scores are better.
type ScoreStrategy interface {
	// Score splitting a node into two partitions.
	ScoreSplit(node types.AABB, leftCount int, leftBox types.AABB, rightCount int, rightBox types.AABB) float32

	// Score turning count items bounded by box into a leaf.
	ScorePartition(count int, box types.AABB) float32
}

// Options control the BVH builder.
type Options struct {
	// Nodes with at most MinLeafSize items always become leaves.
	MinLeafSize int

	// Leaves never hold more than MaxLeafSize items.
	MaxLeafSize int

	// Number of bins evaluated per axis.
	Bins int

	// Enable spatial splits. Triangles straddling a spatial split plane are
	// clipped and referenced from both children.
	SpatialSplits bool

	// Spatial splits are only attempted when the children of the best
	// object split overlap by more than this fraction of the root area.
	SpatialSplitAlpha float32

	// Maximum number of duplicated references, as a fraction of the input
	// object count.
	SpatialSplitBudget float32

	// The split scoring strategy; defaults to SurfaceAreaHeuristic.
	ScoreStrategy ScoreStrategy
}

// Default builder options.
func DefaultOptions() Options {
	return Options{
		MinLeafSize:        1,
		MaxLeafSize:        8,
		Bins:               32,
		SpatialSplits:      true,
		SpatialSplitAlpha:  1e-5,
		SpatialSplitBudget: 0.3,
		ScoreStrategy:      SurfaceAreaHeuristic,
	}
}

type splitKind uint8

const (
	objectSplit splitKind = iota
	spatialSplit
)

type splitScore struct {
	kind splitKind
	axis Axis

	// Object splits: items whose centroid bin is < plane go left.
	// Spatial splits: plane is the bin boundary at splitPoint.
	plane      int
	origin     float32
	scale      float32
	splitPoint float32

	leftCount, rightCount int
	leftBox, rightBox     types.AABB
	score                 float32
}

type reference struct {
	index uint32
	box   types.AABB
}

func (r reference) centroid(axis Axis) float32 {
	return (r.box.Min[axis] + r.box.Max[axis]) * 0.5
}

type stats struct {
	totalItems     int
	references     int
	innerNodes     int
	leafs          int
	spatialSplits  int
	forcedSplits   int
	maxDepth       int
	maxLeafRecords int
}

type builder struct {
	logger log.Logger

	cb   BuilderCallback
	opts Options

	// A channel for receiving per-axis object split results.
	scoreChan chan *splitScore

	rootArea float32

	// Remaining number of references that spatial splits may duplicate.
	refBudget int

	stats stats
}

// Build a BVH over numObjects objects exposed by cb and return the root
// reference. The callback receives every construction call from the
// calling goroutine.
//
// Split candidates are evaluated with binning. Object splits along the
// three axes are scored in parallel; spatial splits clip references through
// cb.SplitNode and are scored on the calling goroutine.
func Build(cb BuilderCallback, numObjects uint32, opts Options) ChildRef {
	opts = opts.withDefaults()

	maxRefs := int(numObjects)
	if opts.SpatialSplits {
		maxRefs += int(float32(numObjects) * opts.SpatialSplitBudget)
	}

	b := &builder{
		logger:    log.New("bvh"),
		cb:        cb,
		opts:      opts,
		scoreChan: make(chan *splitScore),
		refBudget: maxRefs - int(numObjects),
		stats: stats{
			totalItems: int(numObjects),
		},
	}

	start := time.Now()

	nInner := uint32(0)
	if maxRefs > 1 {
		nInner = uint32(maxRefs - 1)
	}
	cb.StartConstruction(nInner, uint32(maxRefs))

	refs := make([]reference, 0, numObjects)
	sceneBox := types.EmptyAABB()
	cb.IterateObjects(func(index uint32, box types.AABB) {
		refs = append(refs, reference{index: index, box: box})
		sceneBox = sceneBox.Enlarge(box)
	})

	b.rootArea = sceneBox.Area()
	root, _ := b.partition(refs, sceneBox, NoParent, 0)
	cb.FinishConstruction(root, sceneBox)

	b.logger.Debugf(
		"BVH build time: %d ms, maxDepth: %d, inner nodes: %d, leafs: %d, refs: %d/%d, spatial splits: %d, forced splits: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.innerNodes, b.stats.leafs,
		b.stats.references, b.stats.totalItems,
		b.stats.spatialSplits, b.stats.forcedSplits,
	)

	return root
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinLeafSize < 1 {
		o.MinLeafSize = def.MinLeafSize
	}
	if o.MaxLeafSize < o.MinLeafSize {
		o.MaxLeafSize = o.MinLeafSize
	}
	if o.Bins < 2 {
		o.Bins = def.Bins
	}
	if o.SpatialSplitBudget < 0 {
		o.SpatialSplitBudget = 0
	}
	if o.ScoreStrategy == nil {
		o.ScoreStrategy = SurfaceAreaHeuristic
	}
	return o
}

// Partition refs and return the node reference and its bounds.
func (b *builder) partition(refs []reference, box types.AABB, parent uint32, depth int) (ChildRef, types.AABB) {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	count := len(refs)
	if count <= b.opts.MinLeafSize || depth >= maxDepth {
		return b.createLeaf(refs, parent), box
	}

	best := b.bestObjectSplit(refs, box)
	if b.opts.SpatialSplits && b.refBudget > 0 && b.spatialCandidate(best) {
		if spatial := b.bestSpatialSplit(refs, box); spatial != nil && (best == nil || spatial.score < best.score) {
			best = spatial
		}
	}

	leafScore := b.opts.ScoreStrategy.ScorePartition(count, box)
	if count <= b.opts.MaxLeafSize && (best == nil || best.score >= leafScore) {
		return b.createLeaf(refs, parent), box
	}

	var left, right []reference
	if best != nil {
		left, right = b.applySplit(refs, best)
	}
	if len(left) == 0 || len(right) == 0 {
		b.stats.forcedSplits++
		left, right = medianSplit(refs, box)
	}

	nodeIndex, node := b.cb.CreateInnerNode()
	b.stats.innerNodes++

	leftRef, leftBox := b.partition(left, boundsOf(left), nodeIndex, depth+1)
	rightRef, rightBox := b.partition(right, boundsOf(right), nodeIndex, depth+1)
	node.SetLeft(leftBox, leftRef)
	node.SetRight(rightBox, rightRef)

	return InnerRef(nodeIndex), box
}

// Setup a leaf containing all refs.
func (b *builder) createLeaf(refs []reference, parent uint32) ChildRef {
	objIndices := make([]uint32, len(refs))
	for i, ref := range refs {
		objIndices[i] = ref.index
	}
	offset := b.cb.CreateLeafNode(parent, objIndices)

	b.stats.leafs++
	b.stats.references += len(refs)
	if len(refs) > b.stats.maxLeafRecords {
		b.stats.maxLeafRecords = len(refs)
	}

	return LeafRef(offset)
}

// Score binned object splits along every axis in parallel and return the
// best one or nil if no axis can be split.
func (b *builder) bestObjectSplit(refs []reference, box types.AABB) *splitScore {
	centroids := types.EmptyAABB()
	for _, ref := range refs {
		centroids = centroids.Extend(ref.box.Center())
	}

	pendingScores := 0
	side := centroids.Size()
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		pendingScores++
		go func(axis Axis) {
			b.scoreChan <- b.scoreObjectAxis(refs, box, axis, centroids.Min[axis], side[axis])
		}(axis)
	}

	var best *splitScore
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate == nil {
			continue
		}
		if best == nil || candidate.score < best.score || (candidate.score == best.score && candidate.axis < best.axis) {
			best = candidate
		}
	}
	return best
}

func (b *builder) scoreObjectAxis(refs []reference, node types.AABB, axis Axis, origin, extent float32) *splitScore {
	numBins := b.opts.Bins
	scale := float32(numBins) / extent

	counts := make([]int, numBins)
	boxes := make([]types.AABB, numBins)
	for i := range boxes {
		boxes[i] = types.EmptyAABB()
	}
	for _, ref := range refs {
		bin := binIndex(ref.centroid(axis), origin, scale, numBins)
		counts[bin]++
		boxes[bin] = boxes[bin].Enlarge(ref.box)
	}

	rightCounts, rightBoxes := suffixSums(counts, boxes)

	var best *splitScore
	leftCount, leftBox := 0, types.EmptyAABB()
	for plane := 1; plane < numBins; plane++ {
		leftCount += counts[plane-1]
		leftBox = leftBox.Enlarge(boxes[plane-1])
		rightCount := rightCounts[plane]
		if leftCount == 0 || rightCount == 0 {
			continue
		}

		score := b.opts.ScoreStrategy.ScoreSplit(node, leftCount, leftBox, rightCount, rightBoxes[plane])
		if best == nil || score < best.score {
			best = &splitScore{
				kind:       objectSplit,
				axis:       axis,
				plane:      plane,
				origin:     origin,
				scale:      scale,
				splitPoint: origin + float32(plane)/scale,
				leftCount:  leftCount,
				rightCount: rightCount,
				leftBox:    leftBox,
				rightBox:   rightBoxes[plane],
				score:      score,
			}
		}
	}
	return best
}

// Spatial splits only pay off when the object split children overlap
// considerably.
func (b *builder) spatialCandidate(best *splitScore) bool {
	if best == nil {
		return true
	}
	overlap := best.leftBox.Intersect(best.rightBox)
	return overlap.Area() > b.opts.SpatialSplitAlpha*b.rootArea
}

// Score binned spatial splits. References are chopped at each bin boundary
// they straddle using the construction callback.
func (b *builder) bestSpatialSplit(refs []reference, node types.AABB) *splitScore {
	numBins := b.opts.Bins
	side := node.Size()

	var best *splitScore
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		origin := node.Min[axis]
		scale := float32(numBins) / side[axis]
		entries := make([]int, numBins)
		exits := make([]int, numBins)
		boxes := make([]types.AABB, numBins)
		for i := range boxes {
			boxes[i] = types.EmptyAABB()
		}

		for _, ref := range refs {
			first := binIndex(ref.box.Min[axis], origin, scale, numBins)
			last := binIndex(ref.box.Max[axis], origin, scale, numBins)
			entries[first]++
			exits[last]++

			cur := ref.box
			for bin := first; bin < last; bin++ {
				pos := origin + float32(bin+1)/scale
				l, r, _ := b.cb.SplitNode(ref.index, axis, pos, cur)
				if l.IsValid() {
					boxes[bin] = boxes[bin].Enlarge(l)
				}
				cur = r
			}
			if cur.IsValid() {
				boxes[last] = boxes[last].Enlarge(cur)
			}
		}

		rightCounts, rightBoxes := suffixSums(exits, boxes)
		leftCount, leftBox := 0, types.EmptyAABB()
		for plane := 1; plane < numBins; plane++ {
			leftCount += entries[plane-1]
			leftBox = leftBox.Enlarge(boxes[plane-1])
			rightCount := rightCounts[plane]

			if leftCount == 0 || rightCount == 0 || leftCount == len(refs) || rightCount == len(refs) {
				continue
			}
			if leftCount+rightCount-len(refs) > b.refBudget {
				continue
			}

			score := b.opts.ScoreStrategy.ScoreSplit(node, leftCount, leftBox, rightCount, rightBoxes[plane])
			if best == nil || score < best.score {
				best = &splitScore{
					kind:       spatialSplit,
					axis:       axis,
					plane:      plane,
					origin:     origin,
					scale:      scale,
					splitPoint: origin + float32(plane)/scale,
					leftCount:  leftCount,
					rightCount: rightCount,
					leftBox:    leftBox,
					rightBox:   rightBoxes[plane],
					score:      score,
				}
			}
		}
	}
	return best
}

// Distribute refs according to a split.
func (b *builder) applySplit(refs []reference, split *splitScore) (left, right []reference) {
	left = make([]reference, 0, split.leftCount)
	right = make([]reference, 0, split.rightCount)
	numBins := b.opts.Bins

	if split.kind == objectSplit {
		for _, ref := range refs {
			if binIndex(ref.centroid(split.axis), split.origin, split.scale, numBins) < split.plane {
				left = append(left, ref)
			} else {
				right = append(right, ref)
			}
		}
		return left, right
	}

	for _, ref := range refs {
		first := binIndex(ref.box.Min[split.axis], split.origin, split.scale, numBins)
		last := binIndex(ref.box.Max[split.axis], split.origin, split.scale, numBins)
		switch {
		case last < split.plane:
			left = append(left, ref)
		case first >= split.plane:
			right = append(right, ref)
		default:
			l, r, _ := b.cb.SplitNode(ref.index, split.axis, split.splitPoint, ref.box)
			if l.IsValid() {
				left = append(left, reference{index: ref.index, box: l})
			}
			if r.IsValid() {
				right = append(right, reference{index: ref.index, box: r})
			}
		}
	}

	if len(left) != 0 && len(right) != 0 {
		b.stats.spatialSplits++
		if dup := len(left) + len(right) - len(refs); dup > 0 {
			b.refBudget -= dup
		}
	}
	return left, right
}

// Split refs in half by centroid along the largest axis of box. Used when
// no binned split separates the refs.
func medianSplit(refs []reference, box types.AABB) (left, right []reference) {
	axis := Axis(box.Size().MaxAxis())
	sorted := make([]reference, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].centroid(axis) < sorted[j].centroid(axis)
	})
	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

func boundsOf(refs []reference) types.AABB {
	box := types.EmptyAABB()
	for _, ref := range refs {
		box = box.Enlarge(ref.box)
	}
	return box
}

func binIndex(v, origin, scale float32, numBins int) int {
	bin := math32.Floor((v - origin) * scale)
	switch {
	case !(bin > 0):
		return 0
	case bin >= float32(numBins):
		return numBins - 1
	}
	return int(bin)
}

func suffixSums(counts []int, boxes []types.AABB) ([]int, []types.AABB) {
	n := len(counts)
	sumCounts := make([]int, n+1)
	sumBoxes := make([]types.AABB, n+1)
	sumBoxes[n] = types.EmptyAABB()
	for i := n - 1; i >= 0; i-- {
		sumCounts[i] = sumCounts[i+1] + counts[i]
		sumBoxes[i] = sumBoxes[i+1].Enlarge(boxes[i])
	}
	return sumCounts, sumBoxes
}

// A score implementation that uses the surface area heuristic.
type surfaceAreaHeuristic struct {
	traversalCost    float32
	intersectionCost float32
}

// Score a BVH split based on the surface area heuristic:
//
// traversal cost * node area + intersection cost * (left count * left area + right count * right area)
//
// Splits that generate empty partitions get the worst possible score.
func (h surfaceAreaHeuristic) ScoreSplit(node types.AABB, leftCount int, leftBox types.AABB, rightCount int, rightBox types.AABB) float32 {
	if leftCount == 0 || rightCount == 0 {
		return math32.MaxFloat32
	}
	return h.traversalCost*node.Area() +
		h.intersectionCost*(float32(leftCount)*leftBox.Area()+float32(rightCount)*rightBox.Area())
}

// Score a leaf using formula: intersection cost * count * area.
func (h surfaceAreaHeuristic) ScorePartition(count int, box types.AABB) float32 {
	if count == 0 {
		return math32.MaxFloat32
	}
	return h.intersectionCost * float32(count) * box.Area()
}

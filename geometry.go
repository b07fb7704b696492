package pdftables

import (
	"math"
	"sort"
)

// Orientation identifies whether an Edge runs horizontally or vertically.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// EdgeType records where an Edge came from, so downstream passes can
// weigh explicit line art differently from edges inferred from word
// alignment.
type EdgeType int

const (
	EdgeTypeLine EdgeType = iota
	EdgeTypeRect
	EdgeTypeWordBased
	EdgeTypeCurve
)

// Bbox is an axis-aligned bounding box in top-left-origin page space.
type Bbox struct {
	X0     float64
	Top    float64
	X1     float64
	Bottom float64
}

func (b Bbox) Width() float64  { return b.X1 - b.X0 }
func (b Bbox) Height() float64 { return b.Bottom - b.Top }

// Edge is a horizontal or vertical line segment used as table scaffolding.
// Orientation and EdgeType are proper enums rather than loose strings so
// intersection and clustering logic can switch on them exhaustively.
type Edge struct {
	X0          float64
	Top         float64
	X1          float64
	Bottom      float64
	Width       float64
	Height      float64
	Orientation Orientation
	EdgeType    EdgeType
}

func (e Edge) Bbox() Bbox {
	return Bbox{X0: e.X0, Top: e.Top, X1: e.X1, Bottom: e.Bottom}
}

// Length returns the edge's extent along its own orientation.
func (e Edge) Length() float64 {
	if e.Orientation == Horizontal {
		return e.Width
	}
	return e.Height
}

// PrimaryCoord returns the coordinate that identifies the edge's line:
// Top for a horizontal edge, X0 for a vertical one.
func (e Edge) PrimaryCoord() float64 {
	if e.Orientation == Horizontal {
		return e.Top
	}
	return e.X0
}

// SetPrimaryCoord relocates the edge to a new primary coordinate,
// preserving its length.
func (e Edge) SetPrimaryCoord(v float64) Edge {
	if e.Orientation == Horizontal {
		e.Top = v
		e.Bottom = v
		return e
	}
	e.X0 = v
	e.X1 = v
	return e
}

// MergeBboxes returns the smallest bbox enclosing both inputs.
func MergeBboxes(a, b Bbox) Bbox {
	return Bbox{
		X0:     math.Min(a.X0, b.X0),
		Top:    math.Min(a.Top, b.Top),
		X1:     math.Max(a.X1, b.X1),
		Bottom: math.Max(a.Bottom, b.Bottom),
	}
}

// GetBboxOverlap returns the intersecting region of two bboxes and
// whether they overlap at all. Touching boxes (a zero-width or
// zero-height overlap) still count as overlapping, so a degenerate bbox
// like an Edge's own bbox (zero-height for a horizontal edge, zero-width
// for a vertical one) can still be clipped correctly.
func GetBboxOverlap(a, b Bbox) (Bbox, bool) {
	x0 := math.Max(a.X0, b.X0)
	top := math.Max(a.Top, b.Top)
	x1 := math.Min(a.X1, b.X1)
	bottom := math.Min(a.Bottom, b.Bottom)
	width := x1 - x0
	height := bottom - top
	if width < 0 || height < 0 || width+height <= 0 {
		return Bbox{}, false
	}
	return Bbox{X0: x0, Top: top, X1: x1, Bottom: bottom}, true
}

// PointInBbox reports whether (x, y) lies within b, half-open on the
// right and bottom edges so a point exactly on a shared boundary belongs
// to only one of two adjacent boxes.
func PointInBbox(x, y float64, b Bbox) bool {
	return x >= b.X0 && x < b.X1 && y >= b.Top && y < b.Bottom
}

// FilterEdges drops edges shorter than minLength.
func FilterEdges(edges []Edge, minLength float64) []Edge {
	if minLength <= 0 {
		return edges
	}
	result := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Length() >= minLength {
			result = append(result, e)
		}
	}
	return result
}

// SnapEdges snaps horizontal edges together by Top and vertical edges
// together by X0, each within their own tolerance.
func SnapEdges(edges []Edge, xTol, yTol float64) []Edge {
	var vEdges, hEdges []Edge
	for _, e := range edges {
		if e.Orientation == Vertical {
			vEdges = append(vEdges, e)
		} else {
			hEdges = append(hEdges, e)
		}
	}

	snappedV := snapByPrimaryCoord(vEdges, xTol)
	snappedH := snapByPrimaryCoord(hEdges, yTol)

	result := make([]Edge, 0, len(snappedV)+len(snappedH))
	result = append(result, snappedV...)
	result = append(result, snappedH...)
	return result
}

// snapByPrimaryCoord clusters edges by PrimaryCoord within tolerance and
// relocates every edge in a cluster to the cluster's mean coordinate.
func snapByPrimaryCoord(edges []Edge, tol float64) []Edge {
	if len(edges) == 0 {
		return edges
	}

	values := make([]float64, len(edges))
	for i, e := range edges {
		values[i] = e.PrimaryCoord()
	}
	clusters := ClusterList(values, tol)

	// Map each original value to its cluster mean.
	snapTo := make(map[uint64]float64, len(values))
	for _, cluster := range clusters {
		sum := 0.0
		for _, v := range cluster {
			sum += v
		}
		mean := sum / float64(len(cluster))
		for _, v := range cluster {
			snapTo[math.Float64bits(v)] = mean
		}
	}

	result := make([]Edge, len(edges))
	for i, e := range edges {
		if mean, ok := snapTo[math.Float64bits(e.PrimaryCoord())]; ok {
			result[i] = e.SetPrimaryCoord(mean)
		} else {
			result[i] = e
		}
	}
	return result
}

// JoinEdgeGroup merges collinear edges (all sharing the same primary
// coordinate) that overlap or sit within tolerance of one another along
// their own length, extending the surviving edge to cover both.
func JoinEdgeGroup(edges []Edge, tolerance float64) []Edge {
	if len(edges) == 0 {
		return edges
	}
	orientation := edges[0].Orientation

	getMin := func(e Edge) float64 {
		if orientation == Horizontal {
			return e.X0
		}
		return e.Top
	}
	getMax := func(e Edge) float64 {
		if orientation == Horizontal {
			return e.X1
		}
		return e.Bottom
	}

	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return getMin(sorted[i]) < getMin(sorted[j]) })

	joined := []Edge{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		last := &joined[len(joined)-1]
		current := sorted[i]

		if getMin(current) <= getMax(*last)+tolerance {
			if getMax(current) > getMax(*last) {
				if orientation == Horizontal {
					last.X1 = current.X1
					last.Width = last.X1 - last.X0
				} else {
					last.Bottom = current.Bottom
					last.Height = last.Bottom - last.Top
				}
			}
		} else {
			joined = append(joined, current)
		}
	}

	return joined
}

// MergeEdges snaps edges together, then joins collinear edges within each
// snapped group. Mirrors pdfplumber's edge-merging pipeline.
func MergeEdges(edges []Edge, settings TableSettings) []Edge {
	if settings.SnapXTolerance > 0 || settings.SnapYTolerance > 0 {
		edges = SnapEdges(edges, settings.SnapXTolerance, settings.SnapYTolerance)
	}

	type groupKey struct {
		orientation Orientation
		position    uint64
	}
	grouped := make(map[groupKey][]Edge)
	var order []groupKey
	for _, e := range edges {
		key := groupKey{orientation: e.Orientation, position: math.Float64bits(e.PrimaryCoord())}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], e)
	}

	var result []Edge
	for _, key := range order {
		group := grouped[key]
		tol := settings.JoinXTolerance
		if key.orientation == Vertical {
			tol = settings.JoinYTolerance
		}
		result = append(result, JoinEdgeGroup(group, tol)...)
	}
	return result
}

// AreNeighbors reports whether two rectangular bboxes touch or overlap,
// i.e. whether their bounding boxes are adjacent within tolerance.
func AreNeighbors(a, b Bbox, tolerance float64) bool {
	xOverlap := a.X0 <= b.X1+tolerance && b.X0 <= a.X1+tolerance
	yOverlap := a.Top <= b.Bottom+tolerance && b.Top <= a.Bottom+tolerance
	return xOverlap && yOverlap
}

// JoinNeighboringRects iteratively merges bboxes that are neighbors,
// repeating until no further merges are possible.
func JoinNeighboringRects(rects []Bbox, tolerance float64) []Bbox {
	remaining := make([]Bbox, len(rects))
	copy(remaining, rects)

	for {
		merged := false
		for i := 0; i < len(remaining); i++ {
			for j := i + 1; j < len(remaining); j++ {
				if AreNeighbors(remaining[i], remaining[j], tolerance) {
					remaining[i] = MergeBboxes(remaining[i], remaining[j])
					remaining = append(remaining[:j], remaining[j+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			break
		}
	}
	return remaining
}

// ClipEdges restricts every edge to lie within bound, dropping edges that
// fall entirely outside it.
func ClipEdges(edges []Edge, bound Bbox) []Edge {
	result := make([]Edge, 0, len(edges))
	for _, e := range edges {
		b, ok := GetBboxOverlap(e.Bbox(), bound)
		if !ok {
			continue
		}
		clipped := e
		clipped.X0, clipped.Top, clipped.X1, clipped.Bottom = b.X0, b.Top, b.X1, b.Bottom
		clipped.Width = clipped.X1 - clipped.X0
		clipped.Height = clipped.Bottom - clipped.Top
		result = append(result, clipped)
	}
	return result
}

package pdftables

import "testing"

func TestMergeBboxes(t *testing.T) {
	a := Bbox{X0: 0, Top: 0, X1: 10, Bottom: 10}
	b := Bbox{X0: 5, Top: 5, X1: 20, Bottom: 20}
	got := MergeBboxes(a, b)
	want := Bbox{X0: 0, Top: 0, X1: 20, Bottom: 20}
	if got != want {
		t.Errorf("MergeBboxes() = %+v, want %+v", got, want)
	}
}

func TestGetBboxOverlap(t *testing.T) {
	a := Bbox{X0: 0, Top: 0, X1: 10, Bottom: 10}
	b := Bbox{X0: 5, Top: 5, X1: 20, Bottom: 20}
	got, ok := GetBboxOverlap(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	want := Bbox{X0: 5, Top: 5, X1: 10, Bottom: 10}
	if got != want {
		t.Errorf("GetBboxOverlap() = %+v, want %+v", got, want)
	}

	c := Bbox{X0: 100, Top: 100, X1: 110, Bottom: 110}
	if _, ok := GetBboxOverlap(a, c); ok {
		t.Error("expected no overlap")
	}
}

func TestPointInBbox(t *testing.T) {
	b := Bbox{X0: 0, Top: 0, X1: 10, Bottom: 10}
	if !PointInBbox(5, 5, b) {
		t.Error("expected point inside bbox")
	}
	if PointInBbox(20, 20, b) {
		t.Error("expected point outside bbox")
	}
}

func TestJoinNeighboringRects(t *testing.T) {
	rects := []Bbox{
		{X0: 0, Top: 0, X1: 10, Bottom: 10},
		{X0: 10, Top: 0, X1: 20, Bottom: 10},
		{X0: 100, Top: 100, X1: 110, Bottom: 110},
	}
	got := JoinNeighboringRects(rects, 0.5)
	if len(got) != 2 {
		t.Fatalf("got %d rects, want 2", len(got))
	}
}

func TestEdgeLengthAndPrimaryCoord(t *testing.T) {
	h := Edge{X0: 0, X1: 10, Top: 5, Bottom: 5, Width: 10, Orientation: Horizontal}
	if h.Length() != 10 {
		t.Errorf("Length() = %v, want 10", h.Length())
	}
	if h.PrimaryCoord() != 5 {
		t.Errorf("PrimaryCoord() = %v, want 5", h.PrimaryCoord())
	}

	v := Edge{X0: 5, X1: 5, Top: 0, Bottom: 10, Height: 10, Orientation: Vertical}
	if v.Length() != 10 {
		t.Errorf("Length() = %v, want 10", v.Length())
	}
	if v.PrimaryCoord() != 5 {
		t.Errorf("PrimaryCoord() = %v, want 5", v.PrimaryCoord())
	}
}

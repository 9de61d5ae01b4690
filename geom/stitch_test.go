package geom

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
)

// segment creates a segment where each node n is located at (n, 0).
func segment(wayID int64, refs ...int64) Segment {
	s := Segment{WayID: wayID, Refs: refs}
	for _, r := range refs {
		s.Points = append(s.Points, orb.Point{float64(r), 0})
	}
	return s
}

func checkRefs(t *testing.T, got []int64, expected ...int64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("%v != %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("%v != %v", got, expected)
		}
	}
}

func countPoints(paths []Path) int {
	n := 0
	for _, p := range paths {
		n += len(p.Points)
	}
	return n
}

func TestStitchRing(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3),
		segment(2, 3, 4, 1),
	})
	if len(paths) != 1 {
		t.Fatal(paths)
	}
	if !paths[0].Closed() {
		t.Fatal("ring not closed", paths[0].Refs)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 3, 4, 1)
	checkRefs(t, paths[0].WayIDs, 1, 2)
}

func TestStitchReverseEndpoints(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3, 4),
		segment(2, 6, 5, 4),
		segment(3, 1, 7, 6),
	})
	if len(paths) != 1 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 4, 4, 5, 6, 6, 7, 1)
	if !paths[0].Closed() {
		t.Fatal("ring not closed")
	}
	// input is not modified
	paths = Stitch([]Segment{segment(2, 6, 5, 4)})
	checkRefs(t, paths[0].Refs, 6, 5, 4)
}

func TestStitchOpen(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3),
		segment(2, 3, 4, 5),
	})
	if len(paths) != 1 {
		t.Fatal(paths)
	}
	if paths[0].Closed() {
		t.Fatal("open path closed")
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 3, 4, 5)
}

func TestStitchClosureOnlyWithMatchingEnds(t *testing.T) {
	for end := int64(1); end <= 6; end++ {
		if end == 2 || end == 3 || end == 4 {
			continue
		}
		paths := Stitch([]Segment{
			segment(1, 1, 2, 3),
			segment(2, 3, 4, end),
		})
		if len(paths) != 1 {
			t.Fatal(end, paths)
		}
		if closed := paths[0].Closed(); closed != (end == 1) {
			t.Errorf("end %d: closed=%v", end, closed)
		}
	}
}

func TestStitchDisjointRings(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3),
		segment(2, 10, 11, 12, 10),
		segment(3, 3, 4, 1),
	})
	if len(paths) != 2 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 3, 4, 1)
	checkRefs(t, paths[1].Refs, 10, 11, 12, 10)
	if !paths[0].Closed() || !paths[1].Closed() {
		t.Fatal("rings not closed")
	}
}

func TestStitchClosedRingsSharingNode(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3, 1),
		segment(2, 1, 4, 5, 1),
	})
	if len(paths) != 2 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 1)
	checkRefs(t, paths[1].Refs, 1, 4, 5, 1)
}

func TestStitchIdenticalSegments(t *testing.T) {
	// same nodes, different ways: both are used, neither is lost
	paths := Stitch([]Segment{
		segment(1, 1, 2, 3),
		segment(2, 1, 2, 3),
	})
	if len(paths) != 1 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 3, 3, 2, 1)
	checkRefs(t, paths[0].WayIDs, 1, 2)
}

func TestStitchBranching(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1, 2),
		segment(2, 2, 3),
		segment(3, 2, 4),
	})
	if len(paths) != 2 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].Refs, 1, 2, 2, 3)
	checkRefs(t, paths[1].Refs, 2, 4)
	if countPoints(paths) != 6 {
		t.Fatal(countPoints(paths))
	}
}

func TestStitchSkipsInvalidSegments(t *testing.T) {
	paths := Stitch([]Segment{
		segment(1, 1),
		segment(2),
		{WayID: 3, Refs: []int64{1, 2}, Points: []orb.Point{{1, 0}}},
		segment(4, 5, 6),
	})
	if len(paths) != 1 {
		t.Fatal(paths)
	}
	checkRefs(t, paths[0].WayIDs, 4)

	if paths := Stitch(nil); len(paths) != 0 {
		t.Fatal(paths)
	}
}

func TestStitchPermutations(t *testing.T) {
	// all orders of four ring segments, each segment in both directions
	for i := 0; i < 16; i++ {
		ways := [][]int64{
			{1, 2, 3, 4},
			{4, 5, 6, 7},
			{7, 8, 9, 10},
			{10, 11, 12, 1},
		}
		for j := range ways {
			if i&(1<<uint(j)) != 0 {
				reverseRefs(ways[j])
			}
		}

		for _, order := range permutations([]int{0, 1, 2, 3}) {
			segments := make([]Segment, 4)
			for k, idx := range order {
				segments[k] = segment(int64(idx+1), ways[idx]...)
			}
			t.Run(fmt.Sprintf("%d-%v", i, order), func(t *testing.T) {
				paths := Stitch(segments)
				if len(paths) != 1 {
					t.Fatalf("not a single ring: %v", paths)
				}
				if !paths[0].Closed() {
					t.Fatalf("ring not closed: %v", paths[0].Refs)
				}
				if n := countPoints(paths); n != 16 {
					t.Fatalf("expected 16 points, got %d", n)
				}
				r := Compact(paths[0].Points)
				asc, desc := true, true
				for k := 1; k < len(r); k++ {
					prev, cur := int(r[k-1][0]), int(r[k][0])
					if !(cur == prev+1 || (prev == 12 && cur == 1)) {
						asc = false
					}
					if !(cur == prev-1 || (prev == 1 && cur == 12)) {
						desc = false
					}
				}
				if !(asc || desc) {
					t.Fatalf("ring not ascending/descending: %v", r)
				}
			})
		}
	}
}

func permutations(values []int) [][]int {
	if len(values) <= 1 {
		return [][]int{append([]int(nil), values...)}
	}
	var result [][]int
	for i := range values {
		rest := make([]int, 0, len(values)-1)
		rest = append(rest, values[:i]...)
		rest = append(rest, values[i+1:]...)
		for _, p := range permutations(rest) {
			result = append(result, append([]int{values[i]}, p...))
		}
	}
	return result
}

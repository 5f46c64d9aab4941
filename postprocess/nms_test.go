package postprocess

import (
	"math"
	"testing"

	"github.com/serg-kas/qrdet/postprocess/result"
)

func square(x, y, size float64) []result.Point {
	return []result.Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestPolygonIoU(t *testing.T) {

	tests := []struct {
		name     string
		a        []result.Point
		b        []result.Point
		expected float64
	}{
		{
			name:     "identical",
			a:        square(0, 0, 10),
			b:        square(0, 0, 10),
			expected: 1.0,
		},
		{
			name:     "disjoint",
			a:        square(0, 0, 10),
			b:        square(20, 20, 10),
			expected: 0.0,
		},
		{
			name: "quarter overlap",
			a:    square(0, 0, 10),
			b:    square(5, 5, 10),
			// intersection 25, union 175
			expected: 25.0 / 175.0,
		},
		{
			name:     "contained",
			a:        square(0, 0, 10),
			b:        square(2, 2, 5),
			expected: 25.0 / 100.0,
		},
	}

	for _, tc := range tests {
		got := polygonIoU(tc.a, tc.b)

		if math.Abs(got-tc.expected) > 0.01 {
			t.Errorf("%s: expected IoU %f, got %f", tc.name, tc.expected, got)
		}
	}
}

func TestPolygonIoUDegenerate(t *testing.T) {

	line := []result.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}}

	if got := polygonIoU(line, square(0, 0, 10)); got != 0 {
		t.Errorf("expected zero IoU for a degenerate polygon, got %f", got)
	}
}

func TestNMSSuppression(t *testing.T) {

	cands := []candidate{
		{conf: 0.9, anchor: 0, polygon: square(0, 0, 10)},
		{conf: 0.8, anchor: 1, polygon: square(1, 1, 10)},
		{conf: 0.7, anchor: 2, polygon: square(50, 50, 10)},
	}

	order := sortCandidates(cands)
	nms(cands, order, 0.3)

	// the second overlaps the first heavily and must be suppressed, the
	// third is disjoint and survives
	if order[0] != 0 {
		t.Errorf("expected highest confidence candidate first, got %d", order[0])
	}

	if order[1] != -1 {
		t.Errorf("expected overlapping candidate suppressed, got %d", order[1])
	}

	if order[2] != 2 {
		t.Errorf("expected disjoint candidate kept, got %d", order[2])
	}
}

func TestNMSThresholdMonotonic(t *testing.T) {

	// shifted squares with IoU around 0.67
	makeCands := func() []candidate {
		return []candidate{
			{conf: 0.9, anchor: 0, polygon: square(0, 0, 10)},
			{conf: 0.8, anchor: 1, polygon: square(2, 0, 10)},
		}
	}

	iou := polygonIoU(square(0, 0, 10), square(2, 0, 10))

	// below the pair's IoU the overlap suppresses
	lowCands := makeCands()
	lowOrder := sortCandidates(lowCands)
	nms(lowCands, lowOrder, iou-0.1)

	if lowOrder[1] != -1 {
		t.Errorf("expected suppression at threshold %f", iou-0.1)
	}

	// above it both survive
	highCands := makeCands()
	highOrder := sortCandidates(highCands)
	nms(highCands, highOrder, iou+0.1)

	if highOrder[1] == -1 {
		t.Errorf("expected no suppression at threshold %f", iou+0.1)
	}
}

func TestSortCandidatesStableTies(t *testing.T) {

	cands := []candidate{
		{conf: 0.5, anchor: 0},
		{conf: 0.7, anchor: 1},
		{conf: 0.5, anchor: 2},
		{conf: 0.7, anchor: 3},
	}

	order := sortCandidates(cands)

	expected := []int{1, 3, 0, 2}

	for i, want := range expected {
		if order[i] != want {
			t.Errorf("position %d: expected candidate %d, got %d",
				i, want, order[i])
		}
	}
}

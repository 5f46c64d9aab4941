package postprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/serg-kas/qrdet/postprocess/result"
)

// pointInQuad reports whether p lies inside or on the counterclockwise
// ordered quadrilateral
func pointInQuad(q [4]result.Point, p result.Point) bool {

	for i := 0; i < 4; i++ {
		if cross(q[i], q[(i+1)%4], p) < -1e-6 {
			return false
		}
	}

	return true
}

func quadArea(q [4]result.Point) float64 {

	area := 0.0

	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += q[i].X*q[j].Y - q[j].X*q[i].Y
	}

	return math.Abs(area) / 2
}

func TestFitRectangleExact(t *testing.T) {

	polygon := []result.Point{
		{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 30}, {X: 10, Y: 30},
	}

	quad, expanded, err := fitQuadrilateral(polygon, QRDetDefaultParams())

	if err != nil {
		t.Fatalf("fitQuadrilateral failed: %v", err)
	}

	want := [4]result.Point{
		{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 30}, {X: 10, Y: 30},
	}

	for i := 0; i < 4; i++ {
		if math.Abs(quad[i].X-want[i].X) > 1e-9 ||
			math.Abs(quad[i].Y-want[i].Y) > 1e-9 {
			t.Errorf("quad vertex %d: expected %v, got %v", i, want[i], quad[i])
		}

		if math.Abs(expanded[i].X-quad[i].X) > 1e-6 ||
			math.Abs(expanded[i].Y-quad[i].Y) > 1e-6 {
			t.Errorf("expanded vertex %d drifted: quad %v, expanded %v",
				i, quad[i], expanded[i])
		}
	}
}

func TestFitTriangle(t *testing.T) {

	polygon := []result.Point{
		{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 0, Y: 30},
	}

	quad, expanded, err := fitQuadrilateral(polygon, QRDetDefaultParams())

	if err != nil {
		t.Fatalf("fitQuadrilateral failed: %v", err)
	}

	// the triangle is turned into a quadrilateral by splitting its longest
	// edge, the original area must be preserved
	if a := quadArea(quad); math.Abs(a-600) > 1e-6 {
		t.Errorf("expected area 600, got %f", a)
	}

	for _, p := range polygon {
		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}
}

func TestFitConcavePolygon(t *testing.T) {

	polygon := []result.Point{
		{X: 0, Y: 0}, {X: 20, Y: 2}, {X: 40, Y: 0}, {X: 38, Y: 20},
		{X: 40, Y: 40}, {X: 20, Y: 38}, {X: 0, Y: 40}, {X: 2, Y: 20},
	}

	quad, expanded, err := fitQuadrilateral(polygon, QRDetDefaultParams())

	if err != nil {
		t.Fatalf("fitQuadrilateral failed: %v", err)
	}

	// the dents lie inside the hull, the fit is the hull itself
	if a := quadArea(quad); math.Abs(a-1600) > 1e-6 {
		t.Errorf("expected area 1600, got %f", a)
	}

	for _, p := range polygon {
		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}
}

func TestFitPentagonGrowsOutward(t *testing.T) {

	polygon := []result.Point{
		{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 50, Y: 20},
		{X: 40, Y: 40}, {X: 0, Y: 40},
	}

	quad, expanded, err := fitQuadrilateral(polygon, QRDetDefaultParams())

	if err != nil {
		t.Fatalf("fitQuadrilateral failed: %v", err)
	}

	// merging hull edges only extends them, so even the tight quad must
	// contain every vertex here
	for _, p := range polygon {
		if !pointInQuad(quad, p) {
			t.Errorf("point %v outside tight quadrilateral %v", p, quad)
		}

		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}

	if a := quadArea(quad); a < 1600 {
		t.Errorf("tight quad area %f smaller than pentagon hull", a)
	}
}

func TestFitCircleContainment(t *testing.T) {

	// a dense circular contour forces simplification before the reduction
	// to four vertices
	polygon := make([]result.Point, 0, 40)

	for i := 0; i < 40; i++ {
		a := 2 * math.Pi * float64(i) / 40

		polygon = append(polygon, result.Point{
			X: 50 + 20*math.Cos(a),
			Y: 50 + 20*math.Sin(a),
		})
	}

	quad, expanded, err := fitQuadrilateral(polygon, QRDetDefaultParams())

	if err != nil {
		t.Fatalf("fitQuadrilateral failed: %v", err)
	}

	// simplification may cut across the tight quad, but the expanded quad
	// must contain every contour point
	for _, p := range polygon {
		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}

	// sanity check the tight fit is in the neighborhood of the circle
	if a := quadArea(quad); a < 800 || a > 2000 {
		t.Errorf("tight quad area %f implausible for a radius 20 circle", a)
	}
}

func TestFitDegenerateInput(t *testing.T) {

	tests := []struct {
		name    string
		polygon []result.Point
	}{
		{"too few points", []result.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
		{"collinear points", []result.Point{
			{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30},
		}},
	}

	for _, tc := range tests {
		_, _, err := fitQuadrilateral(tc.polygon, QRDetDefaultParams())

		if !errors.Is(err, ErrFitFailed) {
			t.Errorf("%s: expected ErrFitFailed, got %v", tc.name, err)
		}
	}
}

func TestOrderQuadStartsTopLeft(t *testing.T) {

	quad := []result.Point{
		{X: 50, Y: 30}, {X: 10, Y: 30}, {X: 50, Y: 10}, {X: 10, Y: 10},
	}

	ordered := orderQuad(quad)

	if ordered[0].X != 10 || ordered[0].Y != 10 {
		t.Errorf("expected first vertex (10,10), got %v", ordered[0])
	}

	// winding keeps a positive signed area
	area := 0.0

	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += ordered[i].X*ordered[j].Y - ordered[j].X*ordered[i].Y
	}

	if area <= 0 {
		t.Errorf("expected positive signed area, got %f", area)
	}
}

func TestExpandQuadNearParallelEdges(t *testing.T) {

	// two adjacent edges that are collinear up to sub pixel noise, with a
	// contour point violating both.  intersecting the shifted lines would
	// put the shared vertex around 1e6 away and break the winding.
	quad := [4]result.Point{
		{X: 0, Y: 0}, {X: 10, Y: 1e-7}, {X: 20, Y: 0}, {X: 10, Y: 10},
	}

	polygon := []result.Point{
		{X: 0, Y: 0}, {X: 10, Y: -3}, {X: 20, Y: 0}, {X: 10, Y: 10},
	}

	expanded := expandQuad(quad, polygon)

	for i, v := range expanded {
		if math.Abs(v.X) > 1000 || math.Abs(v.Y) > 1000 {
			t.Fatalf("vertex %d flew away from the quad: %v", i, v)
		}
	}

	for _, p := range polygon {
		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}

	// winding stays positive
	area := 0.0

	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += expanded[i].X*expanded[j].Y - expanded[j].X*expanded[i].Y
	}

	if area <= 0 {
		t.Errorf("expected positive signed area, got %f", area)
	}
}

func TestExpandQuadShiftsViolatedEdge(t *testing.T) {

	quad := [4]result.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}

	// one contour point sits 3 units beyond the right edge
	polygon := []result.Point{
		{X: 0, Y: 0}, {X: 13, Y: 5}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}

	expanded := expandQuad(quad, polygon)

	for _, p := range polygon {
		if !pointInQuad(expanded, p) {
			t.Errorf("point %v outside expanded quadrilateral %v", p, expanded)
		}
	}

	// only the violated edge moves
	if math.Abs(expanded[0].X) > 1e-6 || math.Abs(expanded[3].X) > 1e-6 {
		t.Errorf("left edge should not move, got %v / %v",
			expanded[0], expanded[3])
	}

	if expanded[1].X < 13 {
		t.Errorf("right edge not shifted past violation: %v", expanded[1])
	}
}

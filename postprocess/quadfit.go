package postprocess

import (
	"math"
	"sort"

	"github.com/serg-kas/qrdet/postprocess/result"
)

// expandEps is the padding added to an expanded quadrilateral edge so
// contour points sitting exactly on the edge end up strictly inside
const expandEps = 1e-9

// cross returns the z component of the cross product of vectors OA and OB
func cross(o, a, b result.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// convexHull computes the convex hull of a point set using the monotone
// chain algorithm.  The hull is returned in counterclockwise order without
// a repeated closing point.
func convexHull(points []result.Point) []result.Point {

	if len(points) < 3 {
		return append([]result.Point(nil), points...)
	}

	pts := append([]result.Point(nil), points...)

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// lower hull
	var lower []result.Point

	for _, p := range pts {
		for len(lower) >= 2 &&
			cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	// upper hull
	var upper []result.Point

	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 &&
			cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// concatenate, dropping the duplicated endpoints
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)

	return hull
}

// perpDistance returns the distance from point p to the infinite line
// through a and b
func perpDistance(p, a, b result.Point) float64 {

	dx := b.X - a.X
	dy := b.Y - a.Y

	l := math.Hypot(dx, dy)

	if l == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}

	return math.Abs(dx*(a.Y-p.Y)-dy*(a.X-p.X)) / l
}

// simplifyChain runs the Douglas-Peucker algorithm on an open point chain,
// always keeping both endpoints
func simplifyChain(pts []result.Point, eps float64) []result.Point {

	if len(pts) < 3 {
		return pts
	}

	maxDist := 0.0
	maxIdx := 0

	for i := 1; i < len(pts)-1; i++ {
		d := perpDistance(pts[i], pts[0], pts[len(pts)-1])

		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= eps {
		return []result.Point{pts[0], pts[len(pts)-1]}
	}

	left := simplifyChain(pts[:maxIdx+1], eps)
	right := simplifyChain(pts[maxIdx:], eps)

	return append(left[:len(left)-1], right...)
}

// simplifyClosed runs Douglas-Peucker on a closed polygon by splitting it
// at the vertex farthest from the first vertex and simplifying both chains
func simplifyClosed(poly []result.Point, eps float64) []result.Point {

	if len(poly) < 4 {
		return poly
	}

	farIdx := 1
	farDist := 0.0

	for i := 1; i < len(poly); i++ {
		d := math.Hypot(poly[i].X-poly[0].X, poly[i].Y-poly[0].Y)

		if d > farDist {
			farDist = d
			farIdx = i
		}
	}

	first := simplifyChain(poly[:farIdx+1], eps)

	second := append([]result.Point(nil), poly[farIdx:]...)
	second = append(second, poly[0])
	second = simplifyChain(second, eps)

	out := append(first[:len(first)-1], second[:len(second)-1]...)

	return out
}

// lineIntersect intersects the infinite line through p with direction dp
// and the infinite line through q with direction dq
func lineIntersect(p result.Point, dp result.Point,
	q result.Point, dq result.Point) (result.Point, bool) {

	denom := dp.X*dq.Y - dp.Y*dq.X

	if math.Abs(denom) < 1e-12 {
		return result.Point{}, false
	}

	t := ((q.X-p.X)*dq.Y - (q.Y-p.Y)*dq.X) / denom

	return result.Point{
		X: p.X + t*dp.X,
		Y: p.Y + t*dp.Y,
	}, true
}

// mergeCost computes the area added to a convex polygon when the edge from
// vertex i to vertex i+1 is removed by extending the two adjacent edges to
// their intersection.  Returns the intersection point and the added area,
// or ok false when the adjacent edges are parallel.
func mergeCost(poly []result.Point, i int) (result.Point, float64, bool) {

	n := len(poly)

	a := poly[(i-1+n)%n]
	b := poly[i]
	c := poly[(i+1)%n]
	d := poly[(i+2)%n]

	x, ok := lineIntersect(a, result.Point{X: b.X - a.X, Y: b.Y - a.Y},
		d, result.Point{X: c.X - d.X, Y: c.Y - d.Y})

	if !ok {
		return result.Point{}, 0, false
	}

	// the extension must move forward along both edges, otherwise the
	// intersection lies on the wrong side and the merge is invalid
	if (x.X-b.X)*(b.X-a.X)+(x.Y-b.Y)*(b.Y-a.Y) < 0 {
		return result.Point{}, 0, false
	}

	if (x.X-c.X)*(c.X-d.X)+(x.Y-c.Y)*(c.Y-d.Y) < 0 {
		return result.Point{}, 0, false
	}

	added := math.Abs(cross(b, c, x)) / 2

	return x, added, true
}

// reduceToQuad merges edges of a convex polygon until exactly four
// vertices remain.  Each step removes the edge whose replacement by the
// intersection of its neighbours adds the least area.
func reduceToQuad(poly []result.Point) ([]result.Point, bool) {

	for len(poly) > 4 {

		bestIdx := -1
		bestCost := math.Inf(1)
		var bestPoint result.Point

		for i := 0; i < len(poly); i++ {
			x, c, ok := mergeCost(poly, i)

			if !ok {
				continue
			}

			if c < bestCost {
				bestCost = c
				bestIdx = i
				bestPoint = x
			}
		}

		if bestIdx == -1 {
			return nil, false
		}

		n := len(poly)
		next := make([]result.Point, 0, n-1)

		for i := 0; i < n; i++ {
			if i == bestIdx {
				next = append(next, bestPoint)
				continue
			}
			if i == (bestIdx+1)%n {
				continue
			}
			next = append(next, poly[i])
		}

		poly = next
	}

	return poly, true
}

// splitLongestEdge turns a triangle into a quadrilateral by inserting the
// midpoint of its longest edge
func splitLongestEdge(tri []result.Point) []result.Point {

	longIdx := 0
	longLen := 0.0

	for i := 0; i < 3; i++ {
		a := tri[i]
		b := tri[(i+1)%3]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)

		if l > longLen {
			longLen = l
			longIdx = i
		}
	}

	a := tri[longIdx]
	b := tri[(longIdx+1)%3]

	mid := result.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}

	out := make([]result.Point, 0, 4)

	for i := 0; i < 3; i++ {
		out = append(out, tri[i])

		if i == longIdx {
			out = append(out, mid)
		}
	}

	return out
}

// orderQuad arranges the four vertices counterclockwise around their
// centroid and rotates the cycle so it starts at the topmost, then
// leftmost, vertex
func orderQuad(quad []result.Point) [4]result.Point {

	cx := 0.0
	cy := 0.0

	for _, p := range quad {
		cx += p.X
		cy += p.Y
	}

	cx /= 4
	cy /= 4

	out := [4]result.Point{quad[0], quad[1], quad[2], quad[3]}

	sort.Slice(out[:], func(i, j int) bool {
		return math.Atan2(out[i].Y-cy, out[i].X-cx) <
			math.Atan2(out[j].Y-cy, out[j].X-cx)
	})

	start := 0

	for i := 1; i < 4; i++ {
		if out[i].Y < out[start].Y ||
			(out[i].Y == out[start].Y && out[i].X < out[start].X) {
			start = i
		}
	}

	var rotated [4]result.Point

	for i := 0; i < 4; i++ {
		rotated[i] = out[(start+i)%4]
	}

	return rotated
}

// expandQuad grows the fitted quadrilateral so every contour point lies
// inside it.  Each edge is shifted outward along its normal by the largest
// distance any contour point sits beyond it, then adjacent shifted edges
// are intersected to form the expanded vertices.
func expandQuad(quad [4]result.Point, polygon []result.Point) [4]result.Point {

	type edgeLine struct {
		origin result.Point
		dir    result.Point
		normal result.Point
		length float64
		shift  float64
	}

	var edges [4]edgeLine

	for i := 0; i < 4; i++ {
		v := quad[i]
		w := quad[(i+1)%4]

		dx := w.X - v.X
		dy := w.Y - v.Y

		l := math.Hypot(dx, dy)

		if l == 0 {
			return quad
		}

		// outward normal for counterclockwise winding
		n := result.Point{X: dy / l, Y: -dx / l}

		shift := 0.0

		for _, p := range polygon {
			d := (p.X-v.X)*n.X + (p.Y-v.Y)*n.Y

			if d > shift {
				shift = d
			}
		}

		if shift > 0 {
			shift += expandEps
		}

		edges[i] = edgeLine{
			origin: result.Point{X: v.X + n.X*shift, Y: v.Y + n.Y*shift},
			dir:    result.Point{X: dx, Y: dy},
			normal: n,
			length: l,
			shift:  shift,
		}
	}

	var out [4]result.Point

	for i := 0; i < 4; i++ {
		prev := edges[(i+3)%4]
		cur := edges[i]

		// near parallel adjacent edges make the intersection fly far away
		// from the quad and ruin the winding, shift the shared vertex along
		// both normals instead.  the sum over-expands the corner slightly
		// but keeps every polygon point beyond both shifted lines.
		sinAngle := math.Abs(prev.dir.X*cur.dir.Y-prev.dir.Y*cur.dir.X) /
			(prev.length * cur.length)

		if sinAngle < 1e-6 {
			out[i] = result.Point{
				X: quad[i].X + prev.normal.X*prev.shift + cur.normal.X*cur.shift,
				Y: quad[i].Y + prev.normal.Y*prev.shift + cur.normal.Y*cur.shift,
			}
			continue
		}

		x, ok := lineIntersect(prev.origin, prev.dir, cur.origin, cur.dir)

		if !ok {
			out[i] = cur.origin
			continue
		}

		out[i] = x
	}

	return out
}

// fitQuadrilateral fits a tight quadrilateral to a contour polygon and
// derives the expanded variant guaranteed to contain every contour point.
func fitQuadrilateral(polygon []result.Point,
	p QRDetParams) ([4]result.Point, [4]result.Point, error) {

	if len(polygon) < 3 {
		return [4]result.Point{}, [4]result.Point{}, ErrFitFailed
	}

	hull := convexHull(polygon)

	if len(hull) < 3 {
		return [4]result.Point{}, [4]result.Point{}, ErrFitFailed
	}

	if p.SimplifyPolygonsLargerThan > 0 &&
		len(hull) > p.SimplifyPolygonsLargerThan {

		simplified := hull

		for eps := p.StartEpsilon; eps <= p.MaxEpsilon &&
			len(simplified) > p.SimplifyPolygonsLargerThan; eps += p.EpsilonIncrement {
			simplified = simplifyClosed(simplified, eps)
		}

		if len(simplified) >= 4 {
			hull = simplified
		}
	}

	var quad []result.Point

	switch {
	case len(hull) == 3:
		quad = splitLongestEdge(hull)

	case len(hull) == 4:
		quad = hull

	default:
		reduced, ok := reduceToQuad(hull)

		if !ok {
			return [4]result.Point{}, [4]result.Point{}, ErrFitFailed
		}

		quad = reduced
	}

	tight := orderQuad(quad)
	expanded := expandQuad(tight, polygon)

	return tight, expanded, nil
}

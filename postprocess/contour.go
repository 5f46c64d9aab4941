package postprocess

import (
	"github.com/serg-kas/qrdet/postprocess/result"
)

// compStats holds the bounding box and pixel area of one connected foreground
// component
type compStats struct {
	minX, minY int
	maxX, maxY int
	area       int
}

// moore neighborhood in clockwise order: E, SE, S, SW, W, NW, N, NE
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// extractPolygon traces the outer contour of the mask's foreground, returning
// an ordered loop of points local to the mask origin.  When the mask holds
// several disjoint components the largest one by pixel area is traced, ties
// keep the first component in scan order.  Masks with no foreground, or whose
// contour degenerates below three vertices, fail with ErrEmptyMask.
func extractPolygon(mask []uint8, w, h int) ([]result.Point, error) {

	labels, stats := labelComponents(mask, w, h)

	best := 0

	for i := 1; i < len(stats); i++ {
		if best == 0 || stats[i].area > stats[best].area {
			best = i
		}
	}

	if best == 0 {
		return nil, ErrEmptyMask
	}

	poly := traceContour(labels, w, h, best, stats[best])

	if len(poly) < 3 {
		return nil, ErrEmptyMask
	}

	return poly, nil
}

// labelComponents labels the 8-connected foreground components of the mask
// in scan order.  Label 0 is background, the returned stats are indexed by
// label with index 0 unused.
func labelComponents(mask []uint8, w, h int) ([]int, []compStats) {

	labels := make([]int, w*h)
	stats := make([]compStats, 1)
	queue := make([]int, 0, 64)

	for start := 0; start < w*h; start++ {

		if mask[start] == 0 || labels[start] != 0 {
			continue
		}

		label := len(stats)
		st := compStats{
			minX: start % w, minY: start / w,
			maxX: start % w, maxY: start / w,
		}

		labels[start] = label
		queue = append(queue[:0], start)

		for len(queue) > 0 {

			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]

			x := idx % w
			y := idx / w

			st.area++

			if x < st.minX {
				st.minX = x
			}
			if x > st.maxX {
				st.maxX = x
			}
			if y < st.minY {
				st.minY = y
			}
			if y > st.maxY {
				st.maxY = y
			}

			for n := 0; n < 8; n++ {
				nx := x + mooreDX[n]
				ny := y + mooreDY[n]

				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}

				nidx := ny*w + nx

				if mask[nidx] == 0 || labels[nidx] != 0 {
					continue
				}

				labels[nidx] = label
				queue = append(queue, nidx)
			}
		}

		stats = append(stats, st)
	}

	return labels, stats
}

// traceContour extracts the boundary polygon of the given labeled component
// using Moore neighbor tracing with Jacob's stopping criterion.  Collinear
// intermediate points are elided as the boundary is walked.  Points are pixel
// coordinates local to the mask origin.
func traceContour(labels []int, w, h, label int, st compStats) []result.Point {

	isLabel := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return labels[y*w+x] == label
	}

	// the first component pixel in scan order is always on the boundary and
	// its west neighbor is background
	sx, sy := -1, -1

	for y := st.minY; y <= st.maxY && sx == -1; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if isLabel(x, y) {
				sx, sy = x, y
				break
			}
		}
	}

	if sx == -1 {
		return nil
	}

	pts := make([]result.Point, 0, 64)

	addPoint := func(x, y int) {
		p := result.Point{X: float64(x), Y: float64(y)}
		n := len(pts)

		if n >= 2 {
			a := pts[n-2]
			b := pts[n-1]

			// drop b when a, b, p are collinear
			cross := (b.X-a.X)*(p.Y-b.Y) - (b.Y-a.Y)*(p.X-b.X)

			if cross == 0 {
				pts = pts[:n-1]
			}
		}

		pts = append(pts, p)
	}

	addPoint(sx, sy)

	cx, cy := sx, sy
	bx, by := sx-1, sy

	startBX, startBY := bx, by
	maxSteps := w*h*4 + 8

	for step := 0; step < maxSteps; step++ {

		// resume the clockwise scan from the neighbor after the backtrack.
		// the backtrack is always a background neighbor of the current pixel
		// so the stopping criterion below (Jacob's criterion) is exact.
		dir := 0

		for n := 0; n < 8; n++ {
			if cx+mooreDX[n] == bx && cy+mooreDY[n] == by {
				dir = n
				break
			}
		}

		nx, ny := -1, -1

		for n := 1; n <= 8; n++ {
			d := (dir + n) % 8
			tx, ty := cx+mooreDX[d], cy+mooreDY[d]

			if isLabel(tx, ty) {
				nx, ny = tx, ty
				break
			}

			// remember the last background cell scanned, it becomes the
			// backtrack of the next pixel
			bx, by = tx, ty
		}

		if nx == -1 {
			// isolated pixel, no boundary to follow
			break
		}

		cx, cy = nx, ny

		if cx == sx && cy == sy && bx == startBX && by == startBY {
			break
		}

		if len(pts) == 0 || pts[len(pts)-1].X != float64(cx) ||
			pts[len(pts)-1].Y != float64(cy) {
			addPoint(cx, cy)
		}
	}

	// drop a duplicated closing point if present
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}

	collinear := func(a, b, c result.Point) bool {
		return (b.X-a.X)*(c.Y-b.Y)-(b.Y-a.Y)*(c.X-b.X) == 0
	}

	// elide collinear points across the loop closure, the walk above only
	// checks consecutive triples within the open chain
	for len(pts) >= 3 && collinear(pts[len(pts)-2], pts[len(pts)-1], pts[0]) {
		pts = pts[:len(pts)-1]
	}

	for len(pts) >= 3 && collinear(pts[len(pts)-1], pts[0], pts[1]) {
		pts = pts[1:]
	}

	return pts
}

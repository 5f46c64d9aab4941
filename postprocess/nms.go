package postprocess

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/serg-kas/qrdet/postprocess/result"
)

// clipperScale is the fixed point scale used when converting float polygon
// coordinates into clipper's integer space
const clipperScale = 256.0

// toClipperPath converts a polygon into a clipper path in fixed point
// integer coordinates
func toClipperPath(poly []result.Point) clipper.Path {

	path := make(clipper.Path, 0, len(poly))

	for _, p := range poly {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(p.X * clipperScale)),
			Y: clipper.CInt(math.Round(p.Y * clipperScale)),
		})
	}

	return path
}

// polygonIoU computes the Intersection over Union of two contour polygons by
// polygon clipping.  Degenerate polygons with no area contribute an IoU of
// zero.
func polygonIoU(a, b []result.Point) float64 {

	pa := toClipperPath(a)
	pb := toClipperPath(b)

	areaA := math.Abs(clipper.Area(pa))
	areaB := math.Abs(clipper.Area(pb))

	if areaA == 0 || areaB == 0 {
		return 0
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(pa, clipper.PtSubject, true)
	c.AddPath(pb, clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection,
		clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	intersection := 0.0

	for _, p := range solution {
		intersection += math.Abs(clipper.Area(p))
	}

	union := areaA + areaB - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// nms implements a greedy Non-Maximum Suppression (NMS) algorithm over the
// candidate contour polygons.  order must hold candidate indices sorted by
// descending confidence, suppressed candidates are marked in place with -1.
func nms(cands []candidate, order []int, threshold float64) {

	for i := 0; i < len(order); i++ {

		if order[i] == -1 {
			continue
		}

		n := order[i]

		for j := i + 1; j < len(order); j++ {
			m := order[j]

			if m == -1 {
				continue
			}

			iou := polygonIoU(cands[n].polygon, cands[m].polygon)

			if iou > threshold {
				order[j] = -1
			}
		}
	}
}

// Package crop extracts detected QR codes from their source image by
// warping the fitted quadrilateral into an axis aligned rectangle.
package crop

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/serg-kas/qrdet"
	"github.com/serg-kas/qrdet/postprocess/result"
)

// dist returns the distance between two quadrilateral vertices
func dist(a, b result.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// warpSize derives the output rectangle dimensions from the quadrilateral
// edge lengths, taking the longer of each opposing edge pair
func warpSize(quad [4]result.Point) (int, int) {

	top := dist(quad[0], quad[1])
	bottom := dist(quad[3], quad[2])
	left := dist(quad[0], quad[3])
	right := dist(quad[1], quad[2])

	w := int(math.Ceil(math.Max(top, bottom)))
	h := int(math.Ceil(math.Max(left, right)))

	return w, h
}

// Quadrilateral warps the region enclosed by a fitted quadrilateral into a
// new axis aligned Mat.  The first quadrilateral vertex maps to the top
// left corner of the output.  The caller must Close the returned Mat.
func Quadrilateral(src gocv.Mat, quad [4]result.Point) (gocv.Mat, error) {

	if src.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: empty source image",
			qrdet.ErrInvalidInput)
	}

	w, h := warpSize(quad)

	if w < 1 || h < 1 {
		return gocv.Mat{}, fmt.Errorf("%w: degenerate quadrilateral",
			qrdet.ErrInvalidInput)
	}

	srcPts := make([]gocv.Point2f, 4)

	for i, p := range quad {
		srcPts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}

	dstPts := []gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(w - 1), Y: 0},
		{X: float32(w - 1), Y: float32(h - 1)},
		{X: 0, Y: float32(h - 1)},
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(srcPts)
	defer srcVec.Close()

	dstVec := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, m, image.Pt(w, h))

	return dst, nil
}

// Detection crops a detection from the source image using its expanded
// quadrilateral, so the full QR code is captured even when the tight fit
// clips a corner.  The caller must Close the returned Mat.
func Detection(src gocv.Mat, det result.Detection) (gocv.Mat, error) {
	return Quadrilateral(src, det.ExpandedQuad)
}

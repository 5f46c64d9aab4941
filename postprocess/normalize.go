package postprocess

import (
	"github.com/serg-kas/qrdet/postprocess/result"
)

// clipPoint clamps a point to the image bounds
func clipPoint(p result.Point, w, h float64) result.Point {
	return result.Point{
		X: clampF(p.X, 0, w),
		Y: clampF(p.Y, 0, h),
	}
}

// clipQuad clamps all four quadrilateral vertices to the image bounds
func clipQuad(q [4]result.Point, w, h float64) [4]result.Point {

	var out [4]result.Point

	for i, p := range q {
		out[i] = clipPoint(p, w, h)
	}

	return out
}

// newDetection assembles a detection record from a surviving candidate and
// its fitted quadrilaterals.  Pixel space fields are clipped to the image
// bounds before the normalized variants are derived from them, so that
// normalized values always land in [0,1].  The expanded quadrilateral is
// exempt from clipping as its containment guarantee must survive contours
// touching the image border.
func newDetection(c candidate, quad, expanded [4]result.Point,
	imgWidth, imgHeight int, id int64) result.Detection {

	w := float64(imgWidth)
	h := float64(imgHeight)

	bbox := result.Box{
		Left:   clampF(c.box.Left, 0, w),
		Top:    clampF(c.box.Top, 0, h),
		Right:  clampF(c.box.Right, 0, w),
		Bottom: clampF(c.box.Bottom, 0, h),
	}

	center := result.Point{
		X: (bbox.Left + bbox.Right) / 2,
		Y: (bbox.Top + bbox.Bottom) / 2,
	}

	polygon := make([]result.Point, len(c.polygon))
	polygonN := make([]result.Point, len(c.polygon))

	for i, p := range c.polygon {
		cp := clipPoint(p, w, h)
		polygon[i] = cp
		polygonN[i] = result.Point{X: cp.X / w, Y: cp.Y / h}
	}

	cQuad := clipQuad(quad, w, h)

	var quadN, expandedN [4]result.Point

	for i := 0; i < 4; i++ {
		quadN[i] = result.Point{X: cQuad[i].X / w, Y: cQuad[i].Y / h}
		expandedN[i] = result.Point{X: expanded[i].X / w, Y: expanded[i].Y / h}
	}

	return result.Detection{
		Confidence: c.conf,
		BBox:       bbox,
		BBoxN: result.Box{
			Left:   bbox.Left / w,
			Top:    bbox.Top / h,
			Right:  bbox.Right / w,
			Bottom: bbox.Bottom / h,
		},
		Center:         center,
		CenterN:        result.Point{X: center.X / w, Y: center.Y / h},
		Width:          bbox.Width(),
		Height:         bbox.Height(),
		WidthN:         bbox.Width() / w,
		HeightN:        bbox.Height() / h,
		Polygon:        polygon,
		PolygonN:       polygonN,
		Quad:           cQuad,
		QuadN:          quadN,
		ExpandedQuad:   expanded,
		ExpandedQuadN:  expandedN,
		ImageWidth:     imgWidth,
		ImageHeight:    imgHeight,
		ID:             id,
	}
}

// Package render draws QR code detection results onto images for
// visualisation and debugging.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/serg-kas/qrdet/postprocess/result"
)

// boxLabel holds the rendering details of a detection text label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// quadPoints converts a quadrilateral into integer pixel points
func quadPoints(q [4]result.Point) []image.Point {

	pts := make([]image.Point, 4)

	for i, p := range q {
		pts[i] = image.Pt(int(p.X), int(p.Y))
	}

	return pts
}

// DetectionBoxes renders the bounding boxes around the QR codes detected
func DetectionBoxes(img *gocv.Mat, detectResults []result.Detection,
	font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	// draw detection boxes
	for i, detResult := range detectResults {

		// Get the color for this object
		colorIndex := i % len(detectionColors)
		useClr := detectionColors[colorIndex]

		boxLeft := int(detResult.BBox.Left)
		boxTop := int(detResult.BBox.Top)
		boxRight := int(detResult.BBox.Right)
		boxBottom := int(detResult.BBox.Bottom)

		// draw rectangle around detected object
		rect := image.Rect(boxLeft, boxTop, boxRight, boxBottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("qr %.2f", detResult.Confidence)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (boxLeft + boxRight) / 2

		case Right:
			centerX = boxRight - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = boxLeft + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, boxTop-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			boxTop-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, boxTop)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer on the
	// image and don't get overlapped with polygon outlines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Polygons renders the contour polygon outline of each detection
func Polygons(img *gocv.Mat, detectResults []result.Detection,
	lineThickness int) {

	for i, detResult := range detectResults {

		colorIndex := i % len(detectionColors)
		useClr := detectionColors[colorIndex]

		pts := make([]image.Point, len(detResult.Polygon))

		for j, p := range detResult.Polygon {
			pts[j] = image.Pt(int(p.X), int(p.Y))
		}

		pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.Polylines(img, pv, true, useClr, lineThickness)
		pv.Close()
	}
}

// Quadrilaterals renders the fitted quadrilateral of each detection.  When
// expanded is true the expanded containment quadrilateral is drawn instead
// of the tight fit.
func Quadrilaterals(img *gocv.Mat, detectResults []result.Detection,
	expanded bool, lineThickness int) {

	for i, detResult := range detectResults {

		colorIndex := i % len(detectionColors)
		useClr := detectionColors[colorIndex]

		quad := detResult.Quad

		if expanded {
			quad = detResult.ExpandedQuad
		}

		pv := gocv.NewPointsVectorFromPoints([][]image.Point{quadPoints(quad)})
		gocv.Polylines(img, pv, true, useClr, lineThickness)
		pv.Close()
	}
}

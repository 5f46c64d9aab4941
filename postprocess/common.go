package postprocess

import (
	"math"
	"runtime"

	"github.com/serg-kas/qrdet/postprocess/result"
)

// sigmoid is the logistic activation applied to raw mask values
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// clampInt restricts the value x to be within the range min and max
func clampInt(x, min, max int) int {

	if x < min {
		return min
	}

	if x > max {
		return max
	}

	return x
}

// clampF restricts the value x to be within the range min and max
func clampF(x, min, max float64) float64 {

	if x < min {
		return min
	}

	if x > max {
		return max
	}

	return x
}

// numDecodeWorkers returns the number of goroutines used for parallel
// candidate decoding, never more than one per candidate
func numDecodeWorkers(candidates int) int {

	n := runtime.NumCPU()

	if n > candidates {
		n = candidates
	}

	if n < 1 {
		n = 1
	}

	return n
}

// boundingQuad returns the axis aligned bounding box of the polygon as a
// clockwise quadrilateral starting at the top left corner
func boundingQuad(polygon []result.Point) [4]result.Point {

	minX, minY := polygon[0].X, polygon[0].Y
	maxX, maxY := minX, minY

	for _, p := range polygon[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return [4]result.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

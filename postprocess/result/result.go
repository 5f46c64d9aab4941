package result

// Point is a 2D coordinate in either pixel or normalized space
type Point struct {
	X, Y float64
}

// Box are the dimensions of the bounding box of a detected QR code
type Box struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the box width
func (b Box) Width() float64 {
	return b.Right - b.Left
}

// Height returns the box height
func (b Box) Height() float64 {
	return b.Bottom - b.Top
}

// Detection defines the attributes of a single QR code detected.  All pixel
// space fields except ExpandedQuad are clipped to the image bounds, all
// normalized fields except ExpandedQuadN are clipped to [0, 1].  The record
// is immutable once created.
type Detection struct {
	// Confidence is the class score of the detection
	Confidence float32
	// BBox is the bounding box in pixel coordinates
	BBox Box
	// BBoxN is the bounding box in normalized coordinates
	BBoxN Box
	// Center is the bounding box center in pixel coordinates
	Center Point
	// CenterN is the bounding box center in normalized coordinates
	CenterN Point
	// Width and Height are the bounding box dimensions in pixels
	Width  float64
	Height float64
	// WidthN and HeightN are the bounding box dimensions normalized
	WidthN  float64
	HeightN float64
	// Polygon is the accurate contour surrounding the QR code in pixel
	// coordinates, it has three or more vertices
	Polygon []Point
	// PolygonN is the accurate contour in normalized coordinates
	PolygonN []Point
	// Quad is the quadrilateral fitted tightly to the contour
	Quad [4]Point
	// QuadN is the fitted quadrilateral in normalized coordinates
	QuadN [4]Point
	// ExpandedQuad is the fitted quadrilateral enlarged so its convex region
	// contains every vertex of Polygon.  It is deliberately not clipped to
	// the image bounds so a QR code cut off at an image edge remains fully
	// coverable by four points.
	ExpandedQuad [4]Point
	// ExpandedQuadN is the expanded quadrilateral in normalized coordinates
	ExpandedQuadN [4]Point
	// ImageWidth and ImageHeight are the dimensions in pixels of the source
	// image the detection was made on
	ImageWidth  int
	ImageHeight int
	// ID is a unique ID assigned to the detection result
	ID int64
}

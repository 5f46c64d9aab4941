// Package preprocess provides helpers for scaling images and packing them
// into the float tensor layout the QR detection model expects.
package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/serg-kas/qrdet"
)

// Resizer defines the struct used for handling image resizing
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destSize is the square model input resolution to scale to
	destSize int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// rgbMat holds the channel swapped image during tensor packing
	rgbMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size.  The image is stretched to the square
// model resolution without preserving aspect, matching the geometry the
// detection model was trained with.
func NewResizer(srcWidth, srcHeight, destSize int) *Resizer {
	return &Resizer{
		srcWidth:  srcWidth,
		srcHeight: srcHeight,
		destSize:  destSize,
		tempMat:   gocv.NewMat(),
		rgbMat:    gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	err := r.tempMat.Close()

	if cerr := r.rgbMat.Close(); err == nil {
		err = cerr
	}

	return err
}

// Resize scales the source image to the square model input resolution
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat) {
	gocv.Resize(src, dest, image.Pt(r.destSize, r.destSize),
		0, 0, gocv.InterpolationArea)
}

// CHWFloat32 resizes a BGR source image and packs it as a CHW ordered RGB
// float32 tensor with pixel values scaled into [0,1]
func (r *Resizer) CHWFloat32(src gocv.Mat) ([]float32, error) {

	if src.Empty() {
		return nil, fmt.Errorf("%w: empty source image", qrdet.ErrInvalidInput)
	}

	r.Resize(src, &r.tempMat)

	gocv.CvtColor(r.tempMat, &r.rgbMat, gocv.ColorBGRToRGB)

	data, err := r.rgbMat.DataPtrUint8()

	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	area := r.destSize * r.destSize
	tensor := make([]float32, 3*area)

	// interleaved HWC bytes to planar CHW floats
	for i := 0; i < area; i++ {
		tensor[i] = float32(data[i*3]) / 255.0
		tensor[area+i] = float32(data[i*3+1]) / 255.0
		tensor[2*area+i] = float32(data[i*3+2]) / 255.0
	}

	return tensor, nil
}

// DestSize returns the square model input resolution
func (r *Resizer) DestSize() int {
	return r.destSize
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}

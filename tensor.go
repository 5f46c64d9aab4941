package qrdet

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the raw model tensors are malformed or a
// processing threshold is out of range.  It is raised before any candidate
// processing takes place.
var ErrInvalidInput = errors.New("invalid input")

// RawOutput holds the two raw tensors produced by one run of the segmentation
// model.  The struct is read-only once constructed, the post processor never
// mutates the tensor buffers.
type RawOutput struct {
	// Boxes is the detection tensor in channel major layout with shape
	// (1, 4+1+K, N).  The first four channels are the anchor box center x,
	// center y, width and height relative to the model input resolution,
	// channel four is the class score and the remaining K channels are the
	// mask coefficients
	Boxes []float32
	// BoxesShape is the shape of the Boxes tensor, eg: [1, 37, 8400]
	BoxesShape []int64
	// Protos is the prototype tensor with shape (1, K, Hp, Wp) holding the
	// shared low resolution mask bases, eg: [1, 32, 160, 160]
	Protos []float32
	// ProtosShape is the shape of the Protos tensor
	ProtosShape []int64
}

// Anchors returns the number of anchor rows N in the detection tensor
func (o *RawOutput) Anchors() int {
	return int(o.BoxesShape[2])
}

// CoeffNum returns the number of mask coefficients K per anchor
func (o *RawOutput) CoeffNum() int {
	return int(o.BoxesShape[1]) - 5
}

// ProtoDims returns the prototype tensor channel count, height and width
func (o *RawOutput) ProtoDims() (int, int, int) {
	return int(o.ProtosShape[1]), int(o.ProtosShape[2]), int(o.ProtosShape[3])
}

// Validate checks the tensor shapes are consistent with each other and with
// their buffer lengths.  It returns an error wrapping ErrInvalidInput on the
// first problem found.
func (o *RawOutput) Validate() error {

	if len(o.BoxesShape) != 3 {
		return fmt.Errorf("%w: boxes tensor must have rank 3, got %d",
			ErrInvalidInput, len(o.BoxesShape))
	}

	if len(o.ProtosShape) != 4 {
		return fmt.Errorf("%w: protos tensor must have rank 4, got %d",
			ErrInvalidInput, len(o.ProtosShape))
	}

	if o.BoxesShape[0] != 1 || o.ProtosShape[0] != 1 {
		return fmt.Errorf("%w: batch size must be 1, got %d and %d",
			ErrInvalidInput, o.BoxesShape[0], o.ProtosShape[0])
	}

	if o.BoxesShape[1] < 6 {
		return fmt.Errorf("%w: boxes tensor needs at least 6 channels, got %d",
			ErrInvalidInput, o.BoxesShape[1])
	}

	if int64(o.CoeffNum()) != o.ProtosShape[1] {
		return fmt.Errorf("%w: mask coefficient count %d does not match prototype channels %d",
			ErrInvalidInput, o.CoeffNum(), o.ProtosShape[1])
	}

	boxesLen := o.BoxesShape[0] * o.BoxesShape[1] * o.BoxesShape[2]

	if int64(len(o.Boxes)) != boxesLen {
		return fmt.Errorf("%w: boxes buffer has %d elements, shape needs %d",
			ErrInvalidInput, len(o.Boxes), boxesLen)
	}

	protosLen := o.ProtosShape[0] * o.ProtosShape[1] * o.ProtosShape[2] * o.ProtosShape[3]

	if int64(len(o.Protos)) != protosLen {
		return fmt.Errorf("%w: protos buffer has %d elements, shape needs %d",
			ErrInvalidInput, len(o.Protos), protosLen)
	}

	return nil
}

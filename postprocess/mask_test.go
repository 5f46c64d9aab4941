package postprocess

import (
	"errors"
	"testing"

	"github.com/serg-kas/qrdet/postprocess/result"
	"gonum.org/v1/gonum/mat"
)

func TestDecodeMaskDimensions(t *testing.T) {

	q := NewQRDet(QRDetDefaultParams())
	q.initBufferPool(8, 8, 64, 64)

	row := make([]float64, 64)

	for i := range row {
		row[i] = 5
	}

	// fractional box edges must still produce a full ceil sized raster
	box := result.Box{Left: 10.2, Top: 10.2, Right: 20.7, Bottom: 30.4}

	mask, w, h, err := q.decodeMask(row, box, 8, 8, 64, 64)

	if err != nil {
		t.Fatalf("decodeMask failed: %v", err)
	}

	defer q.bufPool.Put(bufMask, mask)

	if w != 11 || h != 21 {
		t.Fatalf("expected 11x21 raster, got %dx%d", w, h)
	}

	if len(mask) != w*h {
		t.Fatalf("expected raster length %d, got %d", w*h, len(mask))
	}

	for i, v := range mask {
		if v != 255 {
			t.Fatalf("pixel %d not foreground, got %d", i, v)
		}
	}
}

func TestDecodeMaskEmpty(t *testing.T) {

	q := NewQRDet(QRDetDefaultParams())
	q.initBufferPool(8, 8, 64, 64)

	row := make([]float64, 64)

	for i := range row {
		row[i] = -5
	}

	box := result.Box{Left: 16, Top: 16, Right: 48, Bottom: 48}

	_, _, _, err := q.decodeMask(row, box, 8, 8, 64, 64)

	if !errors.Is(err, ErrEmptyMask) {
		t.Errorf("expected ErrEmptyMask for negative activations, got %v", err)
	}
}

func TestDecodeMaskDegenerateBox(t *testing.T) {

	q := NewQRDet(QRDetDefaultParams())
	q.initBufferPool(8, 8, 64, 64)

	row := make([]float64, 64)

	for i := range row {
		row[i] = 5
	}

	box := result.Box{Left: 30, Top: 16, Right: 30, Bottom: 48}

	_, _, _, err := q.decodeMask(row, box, 8, 8, 64, 64)

	if !errors.Is(err, ErrEmptyMask) {
		t.Errorf("expected ErrEmptyMask for a zero width box, got %v", err)
	}
}

func TestDecodeMasksProduct(t *testing.T) {

	// one candidate, two coefficients: the mask row is the weighted sum of
	// the prototype channels
	coeffs := mat.NewDense(1, 2, []float64{2, -1})

	protos := []float32{
		// channel 0
		1, 2,
		3, 4,
		// channel 1
		1, 1,
		1, 1,
	}

	masks := decodeMasks(coeffs, protos, 2, 4)

	want := []float64{1, 3, 5, 7}

	row := masks.RawRowView(0)

	for i, v := range want {
		if row[i] != v {
			t.Errorf("mask value %d: expected %f, got %f", i, v, row[i])
		}
	}
}

package qrdet

import (
	"errors"
	"testing"
)

// validOutput returns a minimal well formed RawOutput with 2 anchors, 1 mask
// coefficient and a 4x4 prototype grid
func validOutput() *RawOutput {
	return &RawOutput{
		Boxes:       make([]float32, 6*2),
		BoxesShape:  []int64{1, 6, 2},
		Protos:      make([]float32, 16),
		ProtosShape: []int64{1, 1, 4, 4},
	}
}

func TestRawOutputAccessors(t *testing.T) {

	out := &RawOutput{
		BoxesShape:  []int64{1, 37, 8400},
		ProtosShape: []int64{1, 32, 160, 160},
	}

	if out.Anchors() != 8400 {
		t.Errorf("expected 8400 anchors, got %d", out.Anchors())
	}

	if out.CoeffNum() != 32 {
		t.Errorf("expected 32 mask coefficients, got %d", out.CoeffNum())
	}

	c, h, w := out.ProtoDims()

	if c != 32 || h != 160 || w != 160 {
		t.Errorf("expected prototype dims 32x160x160, got %dx%dx%d", c, h, w)
	}
}

func TestRawOutputValidate(t *testing.T) {

	if err := validOutput().Validate(); err != nil {
		t.Fatalf("valid output rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(o *RawOutput)
	}{
		{"boxes rank", func(o *RawOutput) {
			o.BoxesShape = []int64{6, 2}
		}},
		{"protos rank", func(o *RawOutput) {
			o.ProtosShape = []int64{1, 4, 4}
		}},
		{"boxes batch", func(o *RawOutput) {
			o.BoxesShape[0] = 2
		}},
		{"protos batch", func(o *RawOutput) {
			o.ProtosShape[0] = 2
		}},
		{"too few channels", func(o *RawOutput) {
			o.BoxesShape[1] = 5
		}},
		{"coefficient mismatch", func(o *RawOutput) {
			o.ProtosShape[1] = 2
		}},
		{"short boxes buffer", func(o *RawOutput) {
			o.Boxes = o.Boxes[:5]
		}},
		{"short protos buffer", func(o *RawOutput) {
			o.Protos = o.Protos[:3]
		}},
	}

	for _, tc := range tests {
		out := validOutput()
		tc.mutate(out)

		if err := out.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

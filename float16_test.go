package qrdet

import (
	"math"
	"testing"
)

func TestFloat16ToFloat32(t *testing.T) {

	tests := []struct {
		bits     uint16
		expected float32
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xBC00, -1},
		{0x3800, 0.5},
		{0x4000, 2},
		{0xC000, -2},
		{0x7BFF, 65504}, // largest normal half precision value
	}

	bits := make([]uint16, len(tests))

	for i, tc := range tests {
		bits[i] = tc.bits
	}

	got := Float16ToFloat32(bits)

	if len(got) != len(tests) {
		t.Fatalf("expected %d values, got %d", len(tests), len(got))
	}

	for i, tc := range tests {
		if got[i] != tc.expected {
			t.Errorf("bits 0x%04X: expected %f, got %f",
				tc.bits, tc.expected, got[i])
		}
	}
}

func TestFloat16ToFloat32NaN(t *testing.T) {

	got := Float16ToFloat32([]uint16{0x7E00})

	if !math.IsNaN(float64(got[0])) {
		t.Errorf("expected NaN for 0x7E00, got %f", got[0])
	}
}

func TestOutputsFromFloat16(t *testing.T) {

	// 1 anchor, 1 coefficient, 1x1 prototype grid, all ones (0x3C00)
	boxes := make([]uint16, 6)
	protos := make([]uint16, 1)

	for i := range boxes {
		boxes[i] = 0x3C00
	}
	protos[0] = 0x3C00

	out := OutputsFromFloat16(boxes, []int64{1, 6, 1},
		protos, []int64{1, 1, 1, 1})

	if err := out.Validate(); err != nil {
		t.Fatalf("converted output failed validation: %v", err)
	}

	for i, v := range out.Boxes {
		if v != 1 {
			t.Errorf("boxes value %d: expected 1, got %f", i, v)
		}
	}

	if out.Protos[0] != 1 {
		t.Errorf("protos value: expected 1, got %f", out.Protos[0])
	}
}

func TestFloat16ToFloat32Empty(t *testing.T) {

	if got := Float16ToFloat32(nil); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %d values", len(got))
	}
}

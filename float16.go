package qrdet

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Float16ToFloat32 converts a buffer of raw float16 bits, as produced by
// models exported in half precision, to float32 values
func Float16ToFloat32(bits []uint16) []float32 {

	dst := make([]float32, len(bits))

	for i, b := range bits {
		dst[i] = f16LookupTable[b]
	}

	return dst
}

// OutputsFromFloat16 builds a RawOutput from half precision tensor buffers,
// converting them to float32
func OutputsFromFloat16(boxes []uint16, boxesShape []int64,
	protos []uint16, protosShape []int64) *RawOutput {

	return &RawOutput{
		Boxes:       Float16ToFloat32(boxes),
		BoxesShape:  boxesShape,
		Protos:      Float16ToFloat32(protos),
		ProtosShape: protosShape,
	}
}

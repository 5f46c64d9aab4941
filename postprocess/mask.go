package postprocess

import (
	"image"
	"math"

	"github.com/serg-kas/qrdet/postprocess/result"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// decodeMasks multiplies every candidate's mask coefficient row with the
// flattened prototype tensor in a single matrix product, producing one dense
// low resolution mask row per candidate
func decodeMasks(coeffs *mat.Dense, protos []float32, coeffNum,
	protoLen int) *mat.Dense {

	protoData := make([]float64, len(protos))

	for i, v := range protos {
		protoData[i] = float64(v)
	}

	p := mat.NewDense(coeffNum, protoLen, protoData)

	var masks mat.Dense
	masks.Mul(coeffs, p)

	return &masks
}

// decodeMask binarizes one candidate's dense mask row, crops it to the
// prototype grid region covered by the bounding box and resizes that region
// to the box's pixel dimensions.  The returned raster is local to the box
// top left corner and always has exactly ceil(box width) x ceil(box height)
// pixels.  The raster is taken from the mask buffer pool, the caller must
// return it with Put once done.
func (q *QRDet) decodeMask(row []float64, box result.Box, protoH, protoW,
	imgWidth, imgHeight int) ([]uint8, int, int, error) {

	// grid indices of the box region, the prototype grid spans the whole
	// image after resize so the mapping is a plain proportion
	gx1 := clampInt(int(math.Round(box.Left/float64(imgWidth)*float64(protoW))), 0, protoW)
	gy1 := clampInt(int(math.Round(box.Top/float64(imgHeight)*float64(protoH))), 0, protoH)
	gx2 := clampInt(int(math.Round(box.Right/float64(imgWidth)*float64(protoW))), 0, protoW)
	gy2 := clampInt(int(math.Round(box.Bottom/float64(imgHeight)*float64(protoH))), 0, protoH)

	if gx2 <= gx1 || gy2 <= gy1 {
		return nil, 0, 0, ErrEmptyMask
	}

	dstW := int(math.Ceil(box.Right - box.Left))
	dstH := int(math.Ceil(box.Bottom - box.Top))

	if dstW <= 0 || dstH <= 0 {
		return nil, 0, 0, ErrEmptyMask
	}

	cropW := gx2 - gx1
	cropH := gy2 - gy1

	crop := q.bufPool.Get(bufProtoCrop, cropW*cropH)
	defer q.bufPool.Put(bufProtoCrop, crop)

	threshold := float64(q.Params.MaskThreshold)
	foreground := false

	for y := gy1; y < gy2; y++ {
		base := y * protoW

		for x := gx1; x < gx2; x++ {
			if sigmoid(row[base+x]) > threshold {
				crop[(y-gy1)*cropW+(x-gx1)] = 255
				foreground = true
			}
		}
	}

	if !foreground {
		return nil, 0, 0, ErrEmptyMask
	}

	// nearest neighbor keeps the raster binary during resize
	src := &image.Gray{
		Pix:    crop,
		Stride: cropW,
		Rect:   image.Rect(0, 0, cropW, cropH),
	}

	mask := q.bufPool.Get(bufMask, dstW*dstH)

	dst := &image.Gray{
		Pix:    mask,
		Stride: dstW,
		Rect:   image.Rect(0, 0, dstW, dstH),
	}

	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)

	return mask, dstW, dstH, nil
}

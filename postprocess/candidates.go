package postprocess

import (
	"sort"
	"sync"

	"github.com/serg-kas/qrdet"
	"github.com/serg-kas/qrdet/postprocess/result"
	"gonum.org/v1/gonum/mat"
)

// candidate holds one anchor that passed the confidence filter.  The box and
// polygon are in original image pixel space and are not clipped to the image
// bounds until the candidate is promoted to a detection.
type candidate struct {
	// box is the bounding box in original image pixel coordinates
	box result.Box
	// conf is the anchor class score
	conf float32
	// anchor is the column index of the anchor in the detection tensor,
	// used as the stable tie break during sorting
	anchor int
	// polygon is the contour traced from the decoded mask, translated to
	// image pixel space.  nil until decoded, or when the mask was empty.
	polygon []result.Point
}

// filterAnchors scans every anchor column of the detection tensor, keeps the
// ones whose class score passes the confidence threshold and rescales their
// boxes from model input resolution to original image pixels.  The mask
// coefficient rows of the kept anchors are gathered into a dense matrix for
// bulk mask reconstruction.
func (q *QRDet) filterAnchors(out *qrdet.RawOutput, imgWidth,
	imgHeight int) ([]candidate, *mat.Dense) {

	anchors := out.Anchors()
	coeffNum := out.CoeffNum()
	boxes := out.Boxes

	scaleW := float64(imgWidth) / float64(q.Params.ModelInputSize)
	scaleH := float64(imgHeight) / float64(q.Params.ModelInputSize)

	cands := make([]candidate, 0)
	coeffData := make([]float64, 0)

	for i := 0; i < anchors; i++ {

		conf := boxes[4*anchors+i]

		if conf < q.Params.ConfThreshold {
			continue
		}

		cx := float64(boxes[0*anchors+i])
		cy := float64(boxes[1*anchors+i])
		w := float64(boxes[2*anchors+i])
		h := float64(boxes[3*anchors+i])

		cands = append(cands, candidate{
			box: result.Box{
				Left:   (cx - w/2) * scaleW,
				Top:    (cy - h/2) * scaleH,
				Right:  (cx + w/2) * scaleW,
				Bottom: (cy + h/2) * scaleH,
			},
			conf:   conf,
			anchor: i,
		})

		for k := 0; k < coeffNum; k++ {
			coeffData = append(coeffData, float64(boxes[(5+k)*anchors+i]))
		}
	}

	if len(cands) == 0 {
		return nil, nil
	}

	return cands, mat.NewDense(len(cands), coeffNum, coeffData)
}

// decodeCandidates decodes the mask and traces the contour polygon for
// candidates start, start+stride, start+2*stride and so on.  A candidate
// whose mask decodes empty keeps a nil polygon, the caller drops it.
func (q *QRDet) decodeCandidates(cands []candidate, masks *mat.Dense,
	start, stride, protoH, protoW, imgWidth, imgHeight int) {

	for i := start; i < len(cands); i += stride {

		mask, w, h, err := q.decodeMask(masks.RawRowView(i), cands[i].box,
			protoH, protoW, imgWidth, imgHeight)

		if err != nil {
			continue
		}

		poly, err := extractPolygon(mask, w, h)
		q.bufPool.Put(bufMask, mask)

		if err != nil {
			continue
		}

		// translate the contour from mask local to image pixel space
		for j := range poly {
			poly[j].X += cands[i].box.Left
			poly[j].Y += cands[i].box.Top
		}

		cands[i].polygon = poly
	}
}

// decodeCandidatesParallel splits the candidates across NumCPU workers.  Each
// worker strides over the candidate slice and writes disjoint entries, the
// prototype masks are read-only so no locking is needed.
func (q *QRDet) decodeCandidatesParallel(cands []candidate, masks *mat.Dense,
	protoH, protoW, imgWidth, imgHeight int) {

	numWorkers := numDecodeWorkers(len(cands))

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			q.decodeCandidates(cands, masks, w, numWorkers,
				protoH, protoW, imgWidth, imgHeight)
		}(w)
	}

	wg.Wait()
}

// sortCandidates returns candidate indices ordered by descending confidence.
// The sort is stable so candidates with equal confidence keep their original
// anchor order, which keeps results reproducible.
func sortCandidates(cands []candidate) []int {

	order := make([]int, len(cands))

	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].conf > cands[order[b]].conf
	})

	return order
}

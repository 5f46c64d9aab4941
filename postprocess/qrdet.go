package postprocess

import (
	"errors"
	"fmt"

	"github.com/serg-kas/qrdet"
	"github.com/serg-kas/qrdet/postprocess/result"
)

const (
	// buffers
	bufProtoCrop = "protoCrop"
	bufMask      = "mask"

	// parallelDecodeMin is the candidate count above which mask decoding is
	// spread across worker goroutines
	parallelDecodeMin = 6
)

var (
	// ErrEmptyMask indicates a decoded segment mask has no foreground
	// pixels.  The candidate is dropped and counted, processing of the
	// remaining candidates continues.
	ErrEmptyMask = errors.New("mask has no foreground pixels")

	// ErrFitFailed indicates no quadrilateral could be fitted to a contour
	// within the simplification limits.  The FitPolicy parameter decides
	// whether the detection is dropped or falls back to its bounding box.
	ErrFitFailed = errors.New("quadrilateral fit failed")
)

// FitPolicy selects the behaviour when fitting a quadrilateral to a contour
// fails
type FitPolicy int

const (
	// FitPolicyBoundingBox substitutes the contour's axis aligned bounding
	// box as a degenerate quadrilateral
	FitPolicyBoundingBox FitPolicy = iota
	// FitPolicyDrop discards the detection
	FitPolicyDrop
)

// QRDet defines the struct for QR code segmentation model inference post
// processing
type QRDet struct {
	// Params are the Model configuration parameters
	Params QRDetParams
	// idGen is a counter that increments and provides the next number
	// for each detection result ID
	idGen *result.IDGenerator
	// buffer pools to stop allocation contention
	bufPool *bufferPool
	// bufPoolInit is a flag to indicate if the buffer pool has been initialized
	bufPoolInit bool
}

// QRDetParams defines the struct containing the QRDet parameters to use
// for post processing operations
type QRDetParams struct {
	// ConfThreshold is the minimum class score required for an anchor to be
	// considered for processing
	ConfThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between the contour
	// polygons of two detections for both to be kept
	NMSThreshold float32
	// MaskThreshold is the sigmoid activation cutoff used when binarizing
	// the decoded segment mask
	MaskThreshold float32
	// ModelInputSize is the pixel resolution of the square model input the
	// anchor boxes are expressed in
	ModelInputSize int
	// MaxObjectNumber is the maximum number of detections that can be
	// returned
	MaxObjectNumber int
	// SimplifyPolygonsLargerThan is the contour vertex count above which the
	// contour is simplified before fitting the quadrilateral
	SimplifyPolygonsLargerThan int
	// StartEpsilon is the initial Douglas-Peucker tolerance used when
	// simplifying a contour
	StartEpsilon float64
	// MaxEpsilon is the largest Douglas-Peucker tolerance tried before the
	// simplification loop gives up
	MaxEpsilon float64
	// EpsilonIncrement is the amount the tolerance grows by on each
	// simplification attempt
	EpsilonIncrement float64
	// FitPolicy selects what happens to a detection whose contour cannot be
	// fitted with a quadrilateral
	FitPolicy FitPolicy
}

// QRDetDefaultParams returns an instance of QRDetParams configured with the
// default values the model was validated with featuring:
// - Confidence Threshold: 0.5
// - NMS Threshold: 0.3
// - Mask Threshold: 0.5
// - Model Input Size: 640
// - Maximum Object Number: 64
// - Contour simplification for polygons larger than 8 vertices, with the
// Douglas-Peucker tolerance growing from 0.1 to 2.0 in steps of 0.2
func QRDetDefaultParams() QRDetParams {
	return QRDetParams{
		ConfThreshold:              0.5,
		NMSThreshold:               0.3,
		MaskThreshold:              0.5,
		ModelInputSize:             640,
		MaxObjectNumber:            64,
		SimplifyPolygonsLargerThan: 8,
		StartEpsilon:               0.1,
		MaxEpsilon:                 2.0,
		EpsilonIncrement:           0.2,
		FitPolicy:                  FitPolicyBoundingBox,
	}
}

// NewQRDet returns an instance of the QRDet post processor
func NewQRDet(p QRDetParams) *QRDet {
	return &QRDet{
		Params:  p,
		idGen:   result.NewIDGenerator(),
		bufPool: NewBufferPool(),
	}
}

// QRDetResult defines a struct used for QR code detection results
type QRDetResult struct {
	// Detections are the surviving detections ordered by descending
	// confidence
	Detections []result.Detection
	// DroppedEmptyMask counts candidates discarded because their decoded
	// mask had no foreground pixels
	DroppedEmptyMask int
	// DroppedFitFailure counts detections discarded under FitPolicyDrop
	// because no quadrilateral could be fitted
	DroppedFitFailure int
}

// GetDetectResults returns the QR code detections
func (r *QRDetResult) GetDetectResults() []result.Detection {
	return r.Detections
}

// validateParams checks the processing thresholds are within range
func (q *QRDet) validateParams() error {

	p := q.Params

	if p.ConfThreshold <= 0 || p.ConfThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %f not in (0,1]",
			qrdet.ErrInvalidInput, p.ConfThreshold)
	}

	if p.NMSThreshold <= 0 || p.NMSThreshold > 1 {
		return fmt.Errorf("%w: NMS IoU threshold %f not in (0,1]",
			qrdet.ErrInvalidInput, p.NMSThreshold)
	}

	if p.MaskThreshold <= 0 || p.MaskThreshold >= 1 {
		return fmt.Errorf("%w: mask threshold %f not in (0,1)",
			qrdet.ErrInvalidInput, p.MaskThreshold)
	}

	if p.ModelInputSize <= 0 {
		return fmt.Errorf("%w: model input size %d must be positive",
			qrdet.ErrInvalidInput, p.ModelInputSize)
	}

	if p.StartEpsilon <= 0 || p.EpsilonIncrement <= 0 ||
		p.MaxEpsilon < p.StartEpsilon {
		return fmt.Errorf("%w: simplification epsilons %f/%f/%f out of range",
			qrdet.ErrInvalidInput, p.StartEpsilon, p.EpsilonIncrement,
			p.MaxEpsilon)
	}

	return nil
}

// DetectQR takes the raw model outputs and runs the QR code detection
// process then returns the results for an image of the given pixel
// dimensions.  Detections are ordered by descending confidence, candidates
// with equal confidence keep their anchor order.
func (q *QRDet) DetectQR(out *qrdet.RawOutput, imgWidth,
	imgHeight int) (*QRDetResult, error) {

	if err := q.validateParams(); err != nil {
		return nil, err
	}

	if out == nil {
		return nil, fmt.Errorf("%w: nil raw output", qrdet.ErrInvalidInput)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	if imgWidth <= 0 || imgHeight <= 0 {
		return nil, fmt.Errorf("%w: image dimensions %dx%d must be positive",
			qrdet.ErrInvalidInput, imgWidth, imgHeight)
	}

	res := &QRDetResult{}

	// scan anchors and keep those passing the confidence threshold
	cands, coeffs := q.filterAnchors(out, imgWidth, imgHeight)

	if len(cands) == 0 {
		// no object detected
		return res, nil
	}

	_, protoH, protoW := out.ProtoDims()
	q.initBufferPool(protoH, protoW, imgWidth, imgHeight)

	// reconstruct the dense masks of every candidate in one matrix product
	masks := decodeMasks(coeffs, out.Protos, out.CoeffNum(), protoH*protoW)

	// decode each candidate's mask into a contour polygon.  candidates are
	// independent of each other, for larger counts the work is spread over
	// worker goroutines
	if len(cands) > parallelDecodeMin {
		q.decodeCandidatesParallel(cands, masks, protoH, protoW, imgWidth, imgHeight)
	} else {
		q.decodeCandidates(cands, masks, 0, 1, protoH, protoW, imgWidth, imgHeight)
	}

	// drop candidates whose mask decoded empty
	kept := cands[:0]

	for _, c := range cands {
		if c.polygon == nil {
			res.DroppedEmptyMask++
			continue
		}
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		return res, nil
	}

	// greedy NMS over the contour polygons
	order := sortCandidates(kept)
	nms(kept, order, float64(q.Params.NMSThreshold))

	// fit quadrilaterals and assemble detection records
	for _, idx := range order {
		if idx == -1 || len(res.Detections) >= q.Params.MaxObjectNumber {
			continue
		}

		c := kept[idx]

		quad, expanded, err := fitQuadrilateral(c.polygon, q.Params)

		if err != nil {
			if q.Params.FitPolicy == FitPolicyDrop {
				res.DroppedFitFailure++
				continue
			}

			// fall back to the contour's axis aligned bounding box as a
			// degenerate quadrilateral
			quad = boundingQuad(c.polygon)
			expanded = quad
		}

		det := newDetection(c, quad, expanded, imgWidth, imgHeight,
			q.idGen.GetNext())

		res.Detections = append(res.Detections, det)
	}

	return res, nil
}

// initBufferPool initializes the buffer pool
func (q *QRDet) initBufferPool(protoH, protoW, imgWidth, imgHeight int) {

	if q.bufPoolInit {
		return
	}

	q.bufPool.Create(bufProtoCrop, protoH*protoW)
	q.bufPool.Create(bufMask, imgWidth*imgHeight)

	q.bufPoolInit = true
}

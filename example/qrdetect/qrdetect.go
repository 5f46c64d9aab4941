package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/serg-kas/qrdet/crop"
	"github.com/serg-kas/qrdet/onnx"
	"github.com/serg-kas/qrdet/postprocess"
	"github.com/serg-kas/qrdet/preprocess"
	"github.com/serg-kas/qrdet/render"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	modelFile := flag.String("m", "../data/models/qrdet-s.onnx", "ONNX segmentation model file")
	libFile := flag.String("l", onnx.DefaultLibraryPath(), "ONNX Runtime shared library file")
	imgFile := flag.String("i", "../data/qrcodes.jpg", "Image file to run QR code detection on")
	saveFile := flag.String("o", "../data/qrcodes-out.jpg", "The output JPG file with detection markers")
	cropDir := flag.String("c", "", "Optional directory to save cropped QR codes into")
	renderFormat := flag.String("r", "quad", "The rendering format used for detections [quad|expanded|polygon|box]")
	confThresh := flag.Float64("t", 0.5, "Minimum detection confidence")

	flag.Parse()

	cfg := onnx.DefaultConfig(*modelFile)
	cfg.LibPath = *libFile

	model, err := onnx.NewModel(cfg)

	if err != nil {
		log.Fatal("Error initializing ONNX model: ", err)
	}

	// create QR detection post processor
	params := postprocess.QRDetDefaultParams()
	params.ConfThreshold = float32(*confThresh)
	params.ModelInputSize = model.InputSize()

	qrProcessor := postprocess.NewQRDet(params)

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer img.Close()

	// resize image and pack input tensor
	resizer := preprocess.NewResizer(img.Cols(), img.Rows(), model.InputSize())
	defer resizer.Close()

	input, err := resizer.CHWFloat32(img)

	if err != nil {
		log.Fatal("Error preparing input tensor: ", err)
	}

	start := time.Now()

	// perform inference on image file
	rawOutput, err := model.Infer(input)

	if err != nil {
		log.Fatal("Runtime inferencing failed with error: ", err)
	}

	endInference := time.Now()

	// detect QR codes
	detectObjs, err := qrProcessor.DetectQR(rawOutput, img.Cols(), img.Rows())

	if err != nil {
		log.Fatal("Post processing failed with error: ", err)
	}

	detectResults := detectObjs.GetDetectResults()

	endDetect := time.Now()

	// save cropped QR codes before detection markers are drawn
	if *cropDir != "" {
		for _, detResult := range detectResults {

			cropped, err := crop.Detection(img, detResult)

			if err != nil {
				log.Printf("Failed to crop detection %d: %v\n", detResult.ID, err)
				continue
			}

			cropFile := filepath.Join(*cropDir,
				fmt.Sprintf("qr-%d.jpg", detResult.ID))

			if ok := gocv.IMWrite(cropFile, cropped); !ok {
				log.Printf("Failed to save crop to %s\n", cropFile)
			}

			cropped.Close()
		}
	}

	switch *renderFormat {
	case "box":
		render.DetectionBoxes(&img, detectResults, render.DefaultFont(), 2)

	case "polygon":
		render.Polygons(&img, detectResults, 2)
		render.DetectionBoxes(&img, detectResults, render.DefaultFont(), 2)

	case "expanded":
		render.Quadrilaterals(&img, detectResults, true, 2)
		render.DetectionBoxes(&img, detectResults, render.DefaultFont(), 2)

	case "quad":
		fallthrough
	default:
		render.Quadrilaterals(&img, detectResults, false, 2)
		render.DetectionBoxes(&img, detectResults, render.DefaultFont(), 2)
	}

	endRendering := time.Now()

	// output detections to stdout
	for _, detResult := range detectResults {
		fmt.Printf("qr #%d @ (%.0f %.0f %.0f %.0f) %f\n", detResult.ID,
			detResult.BBox.Left, detResult.BBox.Top,
			detResult.BBox.Right, detResult.BBox.Bottom,
			detResult.Confidence)
	}

	if detectObjs.DroppedEmptyMask > 0 || detectObjs.DroppedFitFailure > 0 {
		log.Printf("Dropped candidates: empty mask=%d, fit failure=%d\n",
			detectObjs.DroppedEmptyMask, detectObjs.DroppedFitFailure)
	}

	log.Printf("Model first run speed: inference=%s, post processing=%s, rendering=%s, total time=%s\n",
		endInference.Sub(start).String(),
		endDetect.Sub(endInference).String(),
		endRendering.Sub(endDetect).String(),
		endRendering.Sub(start).String(),
	)

	// save the result
	if ok := gocv.IMWrite(*saveFile, img); !ok {
		log.Fatal("Failed to save the image")
	}

	log.Printf("Saved QR detection result to %s\n", *saveFile)

	// close model and release resources
	err = model.Close()

	if err != nil {
		log.Fatal("Error closing ONNX model: ", err)
	}

	log.Println("done")
}

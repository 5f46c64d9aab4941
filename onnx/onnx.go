// Package onnx runs the QR detection segmentation model through ONNX
// Runtime and adapts its outputs to the post processing pipeline.
package onnx

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/serg-kas/qrdet"
)

var (
	initOnce sync.Once
	initErr  error
)

// Config defines the struct containing the ONNX Runtime session settings
type Config struct {
	// ModelPath is the file path to the segmentation model in ONNX format
	ModelPath string
	// LibPath is the file path to the ONNX Runtime shared library
	LibPath string
	// InputSize is the square pixel resolution of the model input tensor
	InputSize int
	// InputName is the name of the model input tensor
	InputName string
	// OutputNames are the names of the detection and prototype output
	// tensors, in that order
	OutputNames []string
	// NumThreads is the intra op thread count, 0 uses the runtime default
	NumThreads int
}

// DefaultConfig returns a Config populated with the tensor names and input
// resolution the YOLOv8 segmentation export of the QR detector uses
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:   modelPath,
		LibPath:     DefaultLibraryPath(),
		InputSize:   640,
		InputName:   "images",
		OutputNames: []string{"output0", "output1"},
	}
}

// DefaultLibraryPath returns the ONNX Runtime shared library path for the
// current platform
func DefaultLibraryPath() string {

	base := "./lib/onnxruntime"

	switch runtime.GOOS {
	case "windows":
		return base + ".dll"
	case "darwin":
		return fmt.Sprintf("%s_%s.dylib", base, runtime.GOARCH)
	default:
		return fmt.Sprintf("%s_%s.so", base, runtime.GOARCH)
	}
}

// Model wraps an ONNX Runtime session implementing the qrdet.Model
// interface
type Model struct {
	cfg     Config
	session *ort.DynamicAdvancedSession
}

// NewModel loads the segmentation model from the given configuration.
// The ONNX Runtime environment is initialized once for the whole process.
func NewModel(cfg Config) (*Model, error) {

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: model path is empty", qrdet.ErrInvalidInput)
	}

	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d must be positive",
			qrdet.ErrInvalidInput, cfg.InputSize)
	}

	if len(cfg.OutputNames) != 2 {
		return nil, fmt.Errorf("%w: expected 2 output tensor names, got %d",
			qrdet.ErrInvalidInput, len(cfg.OutputNames))
	}

	initOnce.Do(func() {
		ort.SetSharedLibraryPath(cfg.LibPath)
		initErr = ort.InitializeEnvironment()
	})

	if initErr != nil {
		return nil, fmt.Errorf("initializing onnxruntime environment: %w",
			initErr)
	}

	options, err := ort.NewSessionOptions()

	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}

	defer options.Destroy()

	if cfg.NumThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("setting thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, cfg.OutputNames, options)

	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %w",
			cfg.ModelPath, err)
	}

	return &Model{
		cfg:     cfg,
		session: session,
	}, nil
}

// InputSize returns the square pixel resolution of the model input
func (m *Model) InputSize() int {
	return m.cfg.InputSize
}

// Close releases the ONNX Runtime session
func (m *Model) Close() error {
	if m.session == nil {
		return nil
	}

	err := m.session.Destroy()
	m.session = nil

	return err
}

// Infer runs the model on a CHW ordered RGB float tensor and copies the
// detection and prototype outputs into a RawOutput
func (m *Model) Infer(input []float32) (*qrdet.RawOutput, error) {

	sz := int64(m.cfg.InputSize)
	want := 3 * m.cfg.InputSize * m.cfg.InputSize

	if len(input) != want {
		return nil, fmt.Errorf("%w: input tensor has %d values, want %d",
			qrdet.ErrInvalidInput, len(input), want)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, sz, sz), input)

	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}

	defer inputTensor.Destroy()

	// nil entries are allocated by the runtime
	outputs := make([]ort.Value, 2)

	if err := m.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}

	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	boxes, boxesShape, err := tensorData(outputs[0], m.cfg.OutputNames[0])

	if err != nil {
		return nil, err
	}

	protos, protosShape, err := tensorData(outputs[1], m.cfg.OutputNames[1])

	if err != nil {
		return nil, err
	}

	out := &qrdet.RawOutput{
		Boxes:       boxes,
		BoxesShape:  boxesShape,
		Protos:      protos,
		ProtosShape: protosShape,
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}

// tensorData copies a float32 output tensor's values and shape so they
// outlive the runtime owned buffer
func tensorData(v ort.Value, name string) ([]float32, []int64, error) {

	t, ok := v.(*ort.Tensor[float32])

	if !ok {
		return nil, nil, fmt.Errorf("%w: output %s is not a float32 tensor",
			qrdet.ErrInvalidInput, name)
	}

	src := t.GetData()

	data := make([]float32, len(src))
	copy(data, src)

	shape := v.GetShape()

	dims := make([]int64, len(shape))
	copy(dims, shape)

	return data, dims, nil
}

package qrdet

// Model is the inference collaborator boundary.  Implementations run the
// underlying neural network on a preprocessed input tensor and return the two
// raw output tensors.  The post processing pipeline never depends on how the
// model is loaded or executed.
type Model interface {
	// Infer runs the model on a 1x3xSxS CHW float tensor, where S is the
	// model input size, and returns the raw detection and prototype tensors
	Infer(input []float32) (*RawOutput, error)
	// InputSize returns the model input resolution S in pixels
	InputSize() int
	// Close releases any resources held by the model
	Close() error
}

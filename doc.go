/*
qrdet detects QR codes in images using a YOLOv8 segmentation model trained to
locate QR codes in the wild.  It post processes the two raw tensors produced
by the model into geometrically valid detections: a bounding box, an accurate
contour polygon, and a best fit quadrilateral plus an expanded variant that is
guaranteed to cover every point of the contour, each reported in both pixel
and normalized coordinates.

Model inference is an opaque collaborator behind the Model interface, the
onnx subdirectory provides an ONNX Runtime backed implementation.

See example code and usage in the example subdirectory.
*/
package qrdet

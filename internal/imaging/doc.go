// Package imaging provides the image I/O and pixel operations used by the
// slicer: decoding with resource limits, row-band cropping, lossless
// re-encoding and OCR preprocessing.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Row ranges are [top, bottom): top inclusive, bottom
// exclusive, relative to the image bounds origin.
//
// # Supported Formats
//
// Decoding accepts PNG, JPEG, GIF, BMP and WebP. Format detection is based on
// the file contents, not the file name. Output is always PNG so that slices
// never lose quality, even when the source was a JPEG.
//
// # Resource Limits
//
// A very tall screenshot can need gigabytes once decoded. Decode reads only the
// header first and rejects images whose pixel count exceeds the limit with
// ErrImageTooLarge, before allocating the pixel buffer.
//
// # Thread Safety
//
// Decoded images are treated as read-only. Functions in this package never
// modify their input and can be called concurrently on the same image.
//
// # Error Handling
//
// Functions return errors for:
//   - Unrecognized image bytes (ErrUnsupportedFormat)
//   - Corrupt or truncated image data (ErrDecode)
//   - Images above the pixel limit (ErrImageTooLarge)
//   - Row ranges outside the image or with top >= bottom
//   - Encoding errors during image output
package imaging

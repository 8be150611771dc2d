// Package ocr defines the engine abstraction used to read characters off a
// cropped plate region. Engines receive a PNG-encoded raster plus language,
// DPI and engine-specific hints; Recognize wraps an engine call with the
// plate-specific normalization (whitespace folding, character whitelist).
//
// The interfaces are small so an engine can be backed by a native library,
// a local binary or a fake in tests. The gosseract-backed engine lives in
// the tesseract subpackage and installs itself as the default on import.
package ocr

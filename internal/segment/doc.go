// Package segment decides where to cut a tall image into shorter slices.
//
// A Segmenter walks an image from top to bottom and emits Segments: horizontal
// bands described by a top row (inclusive) and a bottom row (exclusive).
// Consecutive segments share Overlap rows so content sitting on a cut line
// appears in both neighbours.
//
// # Modes
//
// Two modes are supported:
//   - fixed-step: every cut lands exactly MaxHeight rows below the segment top.
//   - content-aware: the cut is moved upward from the naive target to the
//     nearest "background" row, searching at most SearchRadius rows.
//
// # Background Rows
//
// A row is background when its pixels are near-uniform. StdDevClassifier uses
// the standard deviation of all RGB channel values in the row; LabClassifier
// compares every pixel to the row's mean color in CIE Lab space. Both are
// edge proxies, not semantic classifiers: a solid decorative band inside a chat
// bubble also looks like background.
//
// # Coordinate System
//
// Row indices are 0-based and relative to the image bounds origin, so a
// sub-image whose Bounds().Min.Y is 300 still has its first row at index 0.
//
// # Guarantees
//
// For a validated Config the segments cover every row, the top of each
// segment is strictly greater than the previous one, and re-running on the
// same image yields identical boundaries.
package segment

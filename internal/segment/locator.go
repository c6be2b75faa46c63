package segment

import "image"

// DefaultSearchRadius is how many rows above the naive target the locator
// may move a cut.
const DefaultSearchRadius = 500

// FindSplit picks the bottom row for a segment whose naive bottom is targetY.
//
// Rows are scanned from targetY upward (decreasing index) down to
// max(startY, targetY-radius), inclusive; the first background row wins.
// When targetY is at or past the image height the height itself is returned,
// so the final segment always reaches the bottom.
//
// Returns:
//   - int: the chosen row, within [max(startY, targetY-radius), targetY] or
//     equal to the image height.
//   - bool: true when no background row was found and the cut was forced at
//     targetY.
func FindSplit(img image.Image, classifier RowClassifier, startY, targetY, radius int) (int, bool) {
	height := img.Bounds().Dy()
	if targetY >= height {
		return height, false
	}

	floor := targetY - radius
	if floor < startY {
		floor = startY
	}

	for y := targetY; y >= floor; y-- {
		if classifier.IsBackground(img, y) {
			return y, false
		}
	}
	return targetY, true
}

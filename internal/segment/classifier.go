package segment

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultTolerance is the standard deviation (on the 0-255 channel scale)
// below which a row counts as background.
const DefaultTolerance = 5.0

// DefaultLabTolerance is the CIE76 ΔE below which a pixel matches its row's
// mean color.
const DefaultLabTolerance = 2.0

// RowClassifier decides whether a pixel row is safe to cut through.
type RowClassifier interface {
	// IsBackground reports whether row y (0-based) is visually uniform.
	IsBackground(img image.Image, y int) bool
}

// StdDevClassifier treats a row as background when the standard deviation of
// its channel values is below Tolerance.
type StdDevClassifier struct {
	Tolerance float64
}

// IsBackground implements RowClassifier.
func (c StdDevClassifier) IsBackground(img image.Image, y int) bool {
	return RowStdDev(img, y) < c.Tolerance
}

// RowStdDev returns the population standard deviation of the R, G and B
// values (0-255) of every pixel in row y. An empty row has deviation 0.
func RowStdDev(img image.Image, y int) float64 {
	var sum, sumSq float64
	n := 0
	eachPixelInRow(img, y, func(r, g, b uint8) {
		for _, v := range [3]float64{float64(r), float64(g), float64(b)} {
			sum += v
			sumSq += v * v
		}
		n += 3
	})
	if n == 0 {
		return 0
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		// rounding on perfectly uniform rows
		variance = 0
	}
	return math.Sqrt(variance)
}

// LabClassifier treats a row as background when every pixel lies within
// Tolerance (CIE76 ΔE, 0-100 scale) of the row's mean color.
//
// It is stricter than StdDevClassifier on rows holding a few thin strokes of
// similar luminance but different hue, such as colored emoji or links.
type LabClassifier struct {
	Tolerance float64
}

// IsBackground implements RowClassifier.
func (c LabClassifier) IsBackground(img image.Image, y int) bool {
	var sr, sg, sb float64
	n := 0
	eachPixelInRow(img, y, func(r, g, b uint8) {
		sr += float64(r)
		sg += float64(g)
		sb += float64(b)
		n++
	})
	if n == 0 {
		return true
	}

	mean := colorful.Color{
		R: sr / float64(n) / 255.0,
		G: sg / float64(n) / 255.0,
		B: sb / float64(n) / 255.0,
	}
	// go-colorful keeps L in [0,1], so ΔE values are a hundredth of the usual scale.
	limit := c.Tolerance / 100.0

	uniform := true
	eachPixelInRow(img, y, func(r, g, b uint8) {
		if !uniform {
			return
		}
		px := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
		if px.DistanceLab(mean) > limit {
			uniform = false
		}
	})
	return uniform
}

// eachPixelInRow calls fn with the 8-bit RGB value of every pixel in row y.
// Alpha is ignored. Rows outside the image produce no calls.
func eachPixelInRow(img image.Image, y int, fn func(r, g, b uint8)) {
	bounds := img.Bounds()
	absY := bounds.Min.Y + y
	if absY < bounds.Min.Y || absY >= bounds.Max.Y {
		return
	}

	switch src := img.(type) {
	case *image.RGBA:
		off := src.PixOffset(bounds.Min.X, absY)
		row := src.Pix[off : off+bounds.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i], row[i+1], row[i+2])
		}
	case *image.NRGBA:
		off := src.PixOffset(bounds.Min.X, absY)
		row := src.Pix[off : off+bounds.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i], row[i+1], row[i+2])
		}
	default:
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, absY).RGBA()
			fn(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
}

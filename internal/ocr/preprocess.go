package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	_ "image/jpeg"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Width bounds for OCR input. Small scans are upscaled for glyph legibility,
// oversized ones downscaled to keep request payloads reasonable.
const (
	minUsefulWidth  = 1500
	upscaleTarget   = 1800
	maxUsefulWidth  = 3500
	downscaleTarget = 3000
)

// Quality thresholds that trigger each enhancement step.
const (
	equalizeBelow = 60.0
	sharpenBelow  = 55.0
	denoiseBelow  = 50.0
)

// PreprocessOptions gates the enhancement steps. Sharpen and denoise are
// quality-gated and only run on low-scoring images; binarize and autocrop are
// unconditional once enabled and can destroy fine print, so they stay opt-in.
type PreprocessOptions struct {
	AllowSharpen bool
	AllowDenoise bool
	// Binarize thresholds the image to pure black and white (Otsu).
	Binarize bool
	// Autocrop trims near-uniform borders around the page content.
	Autocrop bool
}

// DefaultPreprocessOptions enables the quality-gated steps and leaves the
// destructive ones off.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{AllowSharpen: true, AllowDenoise: true}
}

// Preprocessor normalizes scanned document images before OCR.
type Preprocessor struct {
	opts PreprocessOptions
	log  *zap.Logger
}

// NewPreprocessor builds a preprocessor with the given options.
func NewPreprocessor(opts PreprocessOptions, log *zap.Logger) *Preprocessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Preprocessor{opts: opts, log: log}
}

// Prepare decodes an image, grayscales and rescales it, applies quality-gated
// enhancements and re-encodes it as PNG. The input bytes are never modified.
func (p *Preprocessor) Prepare(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	gray := toGray(src)
	gray = rescale(gray)

	score := qualityScore(gray)
	p.log.Debug("image quality assessed",
		zap.Float64("score", score),
		zap.Int("width", gray.Bounds().Dx()))

	if score < equalizeBelow {
		gray = equalize(gray)
	}
	if score < sharpenBelow && p.opts.AllowSharpen {
		gray = sharpen(gray)
	}
	if score < denoiseBelow && p.opts.AllowDenoise {
		gray = medianDenoise(gray)
	}
	if p.opts.Autocrop {
		gray = autocrop(gray)
	}
	if p.opts.Binarize {
		gray = binarize(gray)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}

// rescale brings the width into the useful band, preserving aspect ratio.
func rescale(src *image.Gray) *image.Gray {
	width := src.Bounds().Dx()
	var target int
	switch {
	case width < minUsefulWidth:
		target = upscaleTarget
	case width > maxUsefulWidth:
		target = downscaleTarget
	default:
		return src
	}

	height := src.Bounds().Dy() * target / width
	dst := image.NewGray(image.Rect(0, 0, target, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// qualityScore combines sharpness, contrast and brightness into [0,100].
func qualityScore(img *image.Gray) float64 {
	mean, std := meanStd(img)

	sharpness := math.Min(laplacianVariance(img)/10, 100)
	contrast := math.Min(std/2, 100)
	brightness := 100 - math.Abs(mean-128)/1.28

	return (sharpness + contrast + brightness) / 3
}

func meanStd(img *image.Gray) (mean, std float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(img.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
		}
	}
	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// laplacianVariance measures focus via the variance of the 4-neighbor
// Laplacian response.
func laplacianVariance(img *image.Gray) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	var sum, sumSq float64
	n := float64((w - 2) * (h - 2))
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			v := 4*float64(img.GrayAt(x, y).Y) -
				float64(img.GrayAt(x-1, y).Y) - float64(img.GrayAt(x+1, y).Y) -
				float64(img.GrayAt(x, y-1).Y) - float64(img.GrayAt(x, y+1).Y)
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

// equalize spreads the intensity histogram across the full range.
func equalize(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return img
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(255 * cum / total)
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Pix[out.PixOffset(x, y)] = lut[img.GrayAt(x, y).Y]
		}
	}
	return out
}

// sharpen applies the standard 3x3 sharpening kernel.
func sharpen(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, img.Pix)

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			v := 5*int(img.GrayAt(x, y).Y) -
				int(img.GrayAt(x-1, y).Y) - int(img.GrayAt(x+1, y).Y) -
				int(img.GrayAt(x, y-1).Y) - int(img.GrayAt(x, y+1).Y)
			out.Pix[out.PixOffset(x, y)] = clampByte(v)
		}
	}
	return out
}

// medianDenoise applies a 3x3 median filter.
func medianDenoise(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, img.Pix)

	var window [9]uint8
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = img.GrayAt(x+dx, y+dy).Y
					i++
				}
			}
			out.Pix[out.PixOffset(x, y)] = median9(window)
		}
	}
	return out
}

// binarize applies Otsu's threshold.
func binarize(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return img
	}

	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}

	var sumAll float64
	for i, count := range hist {
		sumAll += float64(i * count)
	}

	var sumBack, weightBack float64
	var bestVar float64
	threshold := 127
	for t := 0; t < 256; t++ {
		weightBack += float64(hist[t])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])
		meanBack := sumBack / weightBack
		meanFore := (sumAll - sumBack) / weightFore
		between := weightBack * weightFore * (meanBack - meanFore) * (meanBack - meanFore)
		if between > bestVar {
			bestVar = between
			threshold = t
		}
	}

	out := image.NewGray(bounds)
	for i, v := range img.Pix {
		if int(v) > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// autocropMargin is how far a row/column's mean may sit from the border tone
// before it counts as content.
const autocropMargin = 12.0

// autocrop trims near-uniform borders, keeping a small padding around the
// detected content.
func autocrop(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 20 || h < 20 {
		return img
	}

	borderTone := float64(img.GrayAt(bounds.Min.X, bounds.Min.Y).Y)
	rowHasContent := func(y int) bool {
		var sum float64
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += float64(img.GrayAt(x, y).Y)
		}
		return math.Abs(sum/float64(w)-borderTone) > autocropMargin
	}
	colHasContent := func(x int) bool {
		var sum float64
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			sum += float64(img.GrayAt(x, y).Y)
		}
		return math.Abs(sum/float64(h)-borderTone) > autocropMargin
	}

	top, bottom := bounds.Min.Y, bounds.Max.Y-1
	for top < bottom && !rowHasContent(top) {
		top++
	}
	for bottom > top && !rowHasContent(bottom) {
		bottom--
	}
	left, right := bounds.Min.X, bounds.Max.X-1
	for left < right && !colHasContent(left) {
		left++
	}
	for right > left && !colHasContent(right) {
		right--
	}

	const pad = 8
	crop := image.Rect(left-pad, top-pad, right+1+pad, bottom+1+pad).Intersect(bounds)
	if crop.Empty() || crop.Eq(bounds) {
		return img
	}

	out := image.NewGray(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out
}

func median9(w [9]uint8) uint8 {
	for i := 1; i < len(w); i++ {
		for j := i; j > 0 && w[j-1] > w[j]; j-- {
			w[j-1], w[j] = w[j], w[j-1]
		}
	}
	return w[4]
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

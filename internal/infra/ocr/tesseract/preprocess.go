package tesseract

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// minWidth below which images are upscaled before recognition.
const minWidth = 1000

// Filter is one preprocessing pipeline applied to a grayscale image.
type Filter struct {
	Name  string
	Apply func(*image.Gray) *image.Gray
}

// DefaultFilters returns the preprocessing variants tried by the engine.
func DefaultFilters() []Filter {
	return []Filter{
		{Name: "denoise-otsu", Apply: DenoiseThreshold},
		{Name: "adaptive", Apply: func(g *image.Gray) *image.Gray { return AdaptiveThreshold(g, 15, 10) }},
		{Name: "close", Apply: func(g *image.Gray) *image.Gray { return Close(OtsuThreshold(g)) }},
	}
}

// Prepare upscales small photos and converts them to grayscale.
func Prepare(img image.Image) *image.Gray {
	if w := img.Bounds().Dx(); w > 0 && w < minWidth {
		img = imaging.Resize(img, w*2, 0, imaging.Lanczos)
	}
	return toGray(imaging.Grayscale(img))
}

// DenoiseThreshold blurs away sensor noise, then binarizes with Otsu.
func DenoiseThreshold(g *image.Gray) *image.Gray {
	return OtsuThreshold(toGray(imaging.Blur(g, 1.0)))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return out
}

// OtsuThreshold binarizes g at the threshold maximizing between-class variance.
func OtsuThreshold(g *image.Gray) *image.Gray {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)
	if total == 0 {
		return g
	}
	sum := 0.0
	for i, c := range hist {
		sum += float64(i * c)
	}
	var sumB, maxVar float64
	var wB int
	threshold := 127
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = t
		}
	}
	return binarize(g, func(_, _ int, v uint8) bool { return int(v) > threshold })
}

// AdaptiveThreshold compares each pixel with the mean of its block x block
// neighbourhood minus c, which copes with uneven lighting on labels.
func AdaptiveThreshold(g *image.Gray, block, c int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	// summed-area table, one row and column of padding
	integral := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}
	half := block / 2
	return binarize(g, func(x, y int, v uint8) bool {
		x0, y0 := max(x-half, 0), max(y-half, 0)
		x1, y1 := min(x+half+1, w), min(y+half+1, h)
		area := (x1 - x0) * (y1 - y0)
		s := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
		return int(v)*area > s-c*area
	})
}

// Close joins broken glyph strokes: dark regions are dilated then eroded
// with a 3x3 kernel.
func Close(g *image.Gray) *image.Gray {
	return morph(morph(g, minOf), maxOf)
}

func minOf(a, b uint8) uint8 { return min(a, b) }
func maxOf(a, b uint8) uint8 { return max(a, b) }

func morph(g *image.Gray, pick func(a, b uint8) uint8) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.Pix[y*g.Stride+x]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					v = pick(v, g.Pix[ny*g.Stride+nx])
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

func binarize(g *image.Gray, white func(x, y int, v uint8) bool) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if white(x, y, g.Pix[y*g.Stride+x]) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

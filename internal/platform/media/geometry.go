package media

import (
	"image"
	"math"
)

// Policy is a named target box for resizing.
type Policy struct {
	Width  int  `yaml:"width" json:"width"`
	Height int  `yaml:"height" json:"height"`
	Crop   bool `yaml:"crop" json:"crop"`
}

// Valid reports whether both target dimensions are positive.
func (p Policy) Valid() bool {
	return p.Width > 0 && p.Height > 0
}

// FitSize scales srcW×srcH into the maxW×maxH box keeping the aspect ratio.
// The ratio is not clamped to 1, so sources smaller than the box are enlarged.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return maxW, maxH
	}
	ratio := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	return scaled(srcW, ratio), scaled(srcH, ratio)
}

// ThumbnailGeometry returns the source rectangle to sample and the output
// dimensions for policy p.
//
// With Crop set the output is exactly p.Width×p.Height and the source
// rectangle is centered and trimmed to the target aspect ratio. Without it
// the whole source is used and the target box shrinks to the source aspect
// ratio.
func ThumbnailGeometry(srcW, srcH int, p Policy) (image.Rectangle, int, int) {
	src := image.Rect(0, 0, srcW, srcH)
	if srcW <= 0 || srcH <= 0 || !p.Valid() {
		return src, p.Width, p.Height
	}
	if p.Crop {
		scaleW := float64(srcW) / float64(p.Width)
		scaleH := float64(srcH) / float64(p.Height)
		switch {
		case scaleW > scaleH:
			w := scaled(srcH, float64(p.Width)/float64(p.Height))
			x := (srcW - w) / 2
			src = image.Rect(x, 0, x+w, srcH)
		case scaleH > scaleW:
			h := scaled(srcW, float64(p.Height)/float64(p.Width))
			y := (srcH - h) / 2
			src = image.Rect(0, y, srcW, y+h)
		}
		return src, p.Width, p.Height
	}
	w, h := p.Width, p.Height
	srcRatio := float64(srcW) / float64(srcH)
	if float64(w)/float64(h) > srcRatio {
		w = scaled(h, srcRatio)
	} else {
		h = scaled(w, 1/srcRatio)
	}
	return src, w, h
}

func scaled(v int, ratio float64) int {
	n := int(math.Round(float64(v) * ratio))
	if n < 1 {
		return 1
	}
	return n
}

package normalize

import (
	"image"

	"github.com/disintegration/imaging"
)

// contentBox returns the minimal rectangle covering every pixel whose
// luminance falls below 255-tolerance, in the source image's coordinate
// space. Every pixel is visited; there is no sampling shortcut. A
// pure-background image degenerates to the full image bounds, never an
// empty rectangle.
func contentBox(img image.Image, tolerance int) image.Rectangle {
	if tolerance < 0 {
		tolerance = 0
	}
	threshold := 255 - tolerance

	gray := imaging.Grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		offset := y * gray.Stride
		for x := 0; x < w; x++ {
			if int(gray.Pix[offset+x*4]) < threshold {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		return image.Rect(0, 0, w, h).Add(img.Bounds().Min)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1).Add(img.Bounds().Min)
}

package processing

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"pizzadetector/internal/models"
)

// fitSquare renders img onto a side×side canvas according to mode.
func fitSquare(img image.Image, mode CropAndScale, side int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch mode {
	case ScaleFill:
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	case ScaleFit:
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

		dw, dh := side, side
		if w >= h {
			dh = side * h / w
		} else {
			dw = side * w / h
		}
		off := image.Pt((side-dw)/2, (side-dh)/2)
		draw.ApproxBiLinear.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(dw, dh))}, img, b, draw.Src, nil)

	default:
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, centerSquare(b), draw.Src, nil)
	}

	return dst
}

func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	s := min(w, h)
	x0 := b.Min.X + (w-s)/2
	y0 := b.Min.Y + (h-s)/2
	return image.Rect(x0, y0, x0+s, y0+s)
}

// swapRB returns a copy of a BGRA-ordered image with red and blue swapped,
// so downstream code can treat it as RGBA.
func swapRB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for i := 0; i+3 < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
	}
	return out
}

// upright rotates img clockwise by o. Up returns img untouched.
func upright(img image.Image, o models.Orientation) image.Image {
	if o == models.OrientationUp {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var out *image.RGBA
	if o == models.OrientationDown {
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch o {
			case models.OrientationRight:
				out.Set(h-1-y, x, c)
			case models.OrientationDown:
				out.Set(w-1-x, h-1-y, c)
			case models.OrientationLeft:
				out.Set(y, w-1-x, c)
			}
		}
	}
	return out
}

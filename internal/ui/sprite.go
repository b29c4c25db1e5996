package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	_ "image/jpeg"
	_ "image/png"
)

var (
	crustColor     = color.RGBA{R: 205, G: 133, B: 63, A: 255}
	cheeseColor    = color.RGBA{R: 255, G: 204, B: 51, A: 255}
	pepperoniColor = color.RGBA{R: 178, G: 34, B: 34, A: 255}
)

const builtinSpriteSize = 128

// LoadSprite reads a PNG or JPEG sprite. An empty path selects the built-in
// pizza slice, which is also returned alongside the error when the file
// cannot be used.
func LoadSprite(path string) (image.Image, error) {
	if path == "" {
		return PizzaSlice(builtinSpriteSize), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return PizzaSlice(builtinSpriteSize), fmt.Errorf("open sprite: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return PizzaSlice(builtinSpriteSize), fmt.Errorf("decode sprite %s: %w", path, err)
	}
	return img, nil
}

// PizzaSlice draws a size×size slice pointing down, crust at the top.
func PizzaSlice(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float64(size)
	crust := s * 0.12

	pepperoni := [][2]float64{{0.5, 0.35}, {0.38, 0.22}, {0.62, 0.22}, {0.5, 0.6}}
	radius := s * 0.06

	for y := 0; y < size; y++ {
		fy := float64(y) + 0.5
		// Triangle narrows linearly from full width at the top to the tip.
		halfWidth := (s - fy) / 2
		for x := 0; x < size; x++ {
			fx := float64(x) + 0.5
			if math.Abs(fx-s/2) > halfWidth {
				continue
			}

			c := cheeseColor
			if fy < crust {
				c = crustColor
			}
			for _, p := range pepperoni {
				if math.Hypot(fx-p[0]*s, fy-p[1]*s) <= radius {
					c = pepperoniColor
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

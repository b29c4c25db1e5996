package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"github.com/google/uuid"

	"pizzadetector/processing/celebration"
)

// FyneStage is a transparent overlay holding the flying sprites. It must
// only be used from the Fyne main goroutine.
type FyneStage struct {
	layer      *fyne.Container
	sprite     image.Image
	spriteSize float32
	sprites    map[uuid.UUID]*canvas.Image
}

func NewFyneStage(sprite image.Image, spriteSize float32) *FyneStage {
	return &FyneStage{
		layer:      container.NewWithoutLayout(),
		sprite:     sprite,
		spriteSize: spriteSize,
		sprites:    make(map[uuid.UUID]*canvas.Image),
	}
}

func (s *FyneStage) Object() fyne.CanvasObject { return s.layer }

func (s *FyneStage) Size() celebration.Size {
	sz := s.layer.Size()
	return celebration.Size{Width: float64(sz.Width), Height: float64(sz.Height)}
}

func (s *FyneStage) Show(item *celebration.Item, done func()) {
	img := canvas.NewImageFromImage(s.sprite)
	img.FillMode = canvas.ImageFillContain
	img.Resize(fyne.NewSquareSize(s.spriteSize))

	from := s.origin(item.Start)
	to := s.origin(item.Target)
	img.Move(from)

	s.sprites[item.ID] = img
	s.layer.Add(img)

	anim := fyne.NewAnimation(item.Duration, flight(img, from, to, done))
	anim.Curve = fyne.AnimationEaseInOut
	anim.Start()
}

func (s *FyneStage) Remove(item *celebration.Item) {
	img, ok := s.sprites[item.ID]
	if !ok {
		return
	}
	delete(s.sprites, item.ID)
	s.layer.Remove(img)
}

// Count is the number of sprites currently on the stage.
func (s *FyneStage) Count() int { return len(s.sprites) }

// origin converts a sprite centre to its top-left corner.
func (s *FyneStage) origin(centre celebration.Point) fyne.Position {
	half := s.spriteSize / 2
	return fyne.NewPos(float32(centre.X)-half, float32(centre.Y)-half)
}

// flight interpolates obj from one position to another and calls done once,
// on the last tick.
func flight(obj fyne.CanvasObject, from, to fyne.Position, done func()) func(float32) {
	finished := false

	return func(p float32) {
		if finished {
			return
		}

		obj.Move(fyne.NewPos(
			from.X+(to.X-from.X)*p,
			from.Y+(to.Y-from.Y)*p,
		))
		canvas.Refresh(obj)

		if p >= 1 {
			finished = true
			done()
		}
	}
}

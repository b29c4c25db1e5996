package celebration

import "math/rand/v2"

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// OnEdge reports whether p lies on the border of a screen of size s.
func (s Size) OnEdge(p Point) bool {
	return p.X == 0 || p.X == s.Width || p.Y == 0 || p.Y == s.Height
}

// Jitter returns an offset in [-amount, amount).
func Jitter(r *rand.Rand, amount float64) float64 {
	return r.Float64()*2*amount - amount
}

// StartPoint is the screen centre moved by an independent jitter on each axis.
func StartPoint(r *rand.Rand, screen Size, jitter float64) Point {
	c := screen.Center()
	return Point{
		X: c.X + Jitter(r, jitter),
		Y: c.Y + Jitter(r, jitter),
	}
}

// Destination picks a random point on one of the four screen edges. A coin
// decides between the left/right pair and the top/bottom pair, a second one
// which edge of the pair, and the remaining coordinate is uniform along that
// edge.
func Destination(r *rand.Rand, screen Size) Point {
	multiplier := float64(r.IntN(2))

	if r.IntN(2) == 1 {
		return Point{X: screen.Width * multiplier, Y: r.Float64() * screen.Height}
	}
	return Point{X: r.Float64() * screen.Width, Y: screen.Height * multiplier}
}

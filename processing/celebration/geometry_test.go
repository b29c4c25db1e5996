package celebration

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDestination_AlwaysOnEdge(t *testing.T) {
	screens := []Size{
		{Width: 390, Height: 844},
		{Width: 1200, Height: 600},
		{Width: 100, Height: 100},
	}

	r := seeded()
	for _, screen := range screens {
		for i := 0; i < 5000; i++ {
			p := Destination(r, screen)

			assert.True(t, screen.OnEdge(p), "point %+v is inside %+v", p, screen)
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.LessOrEqual(t, p.X, screen.Width)
			assert.GreaterOrEqual(t, p.Y, 0.0)
			assert.LessOrEqual(t, p.Y, screen.Height)
		}
	}
}

func TestDestination_ReachesAllFourEdges(t *testing.T) {
	screen := Size{Width: 300, Height: 500}
	r := seeded()

	var left, right, top, bottom int
	for i := 0; i < 1000; i++ {
		p := Destination(r, screen)
		switch {
		case p.X == 0:
			left++
		case p.X == screen.Width:
			right++
		case p.Y == 0:
			top++
		case p.Y == screen.Height:
			bottom++
		}
	}

	assert.Positive(t, left)
	assert.Positive(t, right)
	assert.Positive(t, top)
	assert.Positive(t, bottom)
}

func TestDestination_TopBottomSpansWidth(t *testing.T) {
	// Wide screen: a horizontal-edge point must be able to land past x=height.
	screen := Size{Width: 1000, Height: 100}
	r := seeded()

	beyondHeight := false
	for i := 0; i < 1000; i++ {
		p := Destination(r, screen)
		if (p.Y == 0 || p.Y == screen.Height) && p.X > screen.Height {
			beyondHeight = true
			break
		}
	}
	assert.True(t, beyondHeight)
}

func TestJitter_Bounds(t *testing.T) {
	r := seeded()
	for i := 0; i < 10000; i++ {
		j := Jitter(r, 50)
		assert.GreaterOrEqual(t, j, -50.0)
		assert.Less(t, j, 50.0)
	}
}

func TestStartPoint_NearCenter(t *testing.T) {
	screen := Size{Width: 800, Height: 600}
	r := seeded()

	for i := 0; i < 1000; i++ {
		p := StartPoint(r, screen, 50)
		assert.GreaterOrEqual(t, p.X, 350.0)
		assert.Less(t, p.X, 450.0)
		assert.GreaterOrEqual(t, p.Y, 250.0)
		assert.Less(t, p.Y, 350.0)
	}
}

func TestSize_OnEdge(t *testing.T) {
	screen := Size{Width: 10, Height: 20}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{0, 5}, true},
		{Point{10, 5}, true},
		{Point{5, 0}, true},
		{Point{5, 20}, true},
		{Point{5, 5}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, screen.OnEdge(tc.p), "%+v", tc.p)
	}
}

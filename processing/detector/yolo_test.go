package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pizzadetector/internal/models"
)

func TestClassScores(t *testing.T) {
	classes := []string{"cat", "pizza"}
	// 4 box rows + 2 class rows, 3 anchors each.
	data := []float32{
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
		0.1, 0.15, 0.05, // cat
		0.3, 0.9, 0.5, // pizza
	}

	labels := classScores(data, 6, 3, classes, 0.2)

	assert.Len(t, labels, 1)
	assert.Equal(t, "pizza", labels[0].Name)
	assert.InDelta(t, 0.9, labels[0].Confidence, 1e-6)
}

func TestClassScores_ThresholdZeroSkipsSilentClasses(t *testing.T) {
	data := []float32{
		0, 0, 0, 0, // box
		0.4, // cat
		0,   // pizza
	}

	labels := classScores(data, 6, 1, []string{"cat", "pizza"}, 0)

	assert.Equal(t, []models.Label{{Name: "cat", Confidence: float64(float32(0.4))}}, labels)
}

func TestClassScores_BadShape(t *testing.T) {
	assert.Nil(t, classScores([]float32{1, 2}, 6, 3, COCOClasses, 0.2))
	assert.Nil(t, classScores(nil, 4, 0, COCOClasses, 0.2))
}

func TestCOCOClasses_HasPizza(t *testing.T) {
	assert.Len(t, COCOClasses, 80)
	assert.Contains(t, COCOClasses, "pizza")
}

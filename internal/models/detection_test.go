package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabels_KeepsBestConfidencePerName(t *testing.T) {
	results := []DetectionResult{
		{Label: "pizza", Confidence: 0.25},
		{Label: "cat", Confidence: 0.5},
		{Label: "pizza", Confidence: 0.75},
	}

	labels := Labels(results)

	assert.Equal(t, []Label{
		{Name: "pizza", Confidence: 0.75},
		{Name: "cat", Confidence: 0.5},
	}, labels)
}

func TestLabels_Empty(t *testing.T) {
	assert.Empty(t, Labels(nil))
}

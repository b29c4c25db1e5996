package models

// DetectionResult is one entry of a detection server reply.
type DetectionResult struct {
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Box        []float32 `json:"box"`
}

// Label is a single (label, confidence) pair produced for one frame.
type Label struct {
	Name       string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Labels folds raw detections into one Label per name, keeping the highest
// confidence seen for each.
func Labels(results []DetectionResult) []Label {
	best := make(map[string]float64, len(results))
	order := make([]string, 0, len(results))

	for _, r := range results {
		c := float64(r.Confidence)
		prev, seen := best[r.Label]
		if !seen {
			order = append(order, r.Label)
			best[r.Label] = c
			continue
		}
		if c > prev {
			best[r.Label] = c
		}
	}

	labels := make([]Label, 0, len(order))
	for _, name := range order {
		labels = append(labels, Label{Name: name, Confidence: best[name]})
	}
	return labels
}

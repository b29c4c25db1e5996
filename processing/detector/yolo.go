package processing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"pizzadetector/internal/models"
)

// YOLOLabeler runs a YOLOv8 ONNX export through OpenCV's DNN module and
// reports, per COCO class, the best score over all candidate boxes.
type YOLOLabeler struct {
	net       gocv.Net
	mu        sync.Mutex
	inputSize int
	classes   []string
}

func NewYOLOLabeler(modelPath string, inputSize int) (*YOLOLabeler, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", modelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if inputSize <= 0 {
		inputSize = 640
	}

	return &YOLOLabeler{
		net:       net,
		inputSize: inputSize,
		classes:   COCOClasses,
	}, nil
}

func (y *YOLOLabeler) Predict(ctx context.Context, img image.Image, opts Options) ([]models.Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	square := fitSquare(img, opts.CropAndScale, y.inputSize)

	mat, err := gocv.ImageToMatRGB(square)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	size := image.Pt(y.inputSize, y.inputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.mu.Lock()
	defer y.mu.Unlock()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return classScores(data, dims[1], dims[2], y.classes, opts.Threshold), nil
}

// classScores reads a [channels × anchors] YOLOv8 tensor (4 box values
// followed by one score per class) and keeps the best score of each class
// that reaches threshold.
func classScores(data []float32, channels, anchors int, classes []string, threshold float64) []models.Label {
	if channels <= 4 || len(data) < channels*anchors {
		return nil
	}

	var labels []models.Label
	for c := 4; c < channels; c++ {
		id := c - 4
		if id >= len(classes) {
			break
		}

		best := float32(0)
		row := data[c*anchors : (c+1)*anchors]
		for _, score := range row {
			if score > best {
				best = score
			}
		}

		if float64(best) >= threshold && best > 0 {
			labels = append(labels, models.Label{Name: classes[id], Confidence: float64(best)})
		}
	}
	return labels
}

func (y *YOLOLabeler) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.net.Close()
}

// COCOClasses contains the 80 COCO class names in model output order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

package objdetect

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrModelNotFound is returned when the model file does not exist.
var ErrModelNotFound = errors.New("model file not found")

// ONNXConfig holds the ONNX detector configuration.
type ONNXConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputSize        int
}

// DefaultONNXConfig returns defaults for a YOLOv8 model trained on 640x640
// skeleton images.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		ModelPath:        "models/posture.onnx",
		ConfidenceThresh: DefaultAcceptance,
		NMSThresh:        0.45,
		InputSize:        640,
	}
}

// ONNXDetector runs a YOLOv8-style ONNX model with the OpenCV DNN module.
type ONNXDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	config ONNXConfig
	logger *zap.SugaredLogger
}

// NewONNXDetector loads the model at config.ModelPath.
func NewONNXDetector(config ONNXConfig, logger *zap.SugaredLogger) (*ONNXDetector, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, config.ModelPath)
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", config.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	logger.Infow("loaded posture model", "path", config.ModelPath)

	return &ONNXDetector{
		net:    net,
		config: config,
		logger: logger,
	}, nil
}

// Detect runs the model on img.
func (d *ONNXDetector) Detect(img image.Image) ([]Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	size := image.Pt(d.config.InputSize, d.config.InputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	dets := parseOutput(data, dims[1], dims[2], d.config.ConfidenceThresh, d.config.NMSThresh)
	d.logger.Debugw("posture model output", "detections", len(dets))
	return dets, nil
}

// Close releases the network.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// parseOutput decodes a [channels, anchors] YOLOv8 tensor, laid out channel
// major: 4 box values followed by one score per class.
func parseOutput(data []float32, channels, anchors int, confThresh, nmsThresh float32) []Detection {
	var (
		boxes       []image.Rectangle
		confidences []float32
		classIDs    []int
	)

	for i := 0; i < anchors; i++ {
		maxScore := float32(0)
		maxClass := 0
		for c := 4; c < channels; c++ {
			if s := data[c*anchors+i]; s > maxScore {
				maxScore = s
				maxClass = c - 4
			}
		}
		if maxScore < confThresh {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClass)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, confThresh, nmsThresh)
	dets := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		dets = append(dets, Detection{
			ClassID:    classIDs[idx],
			Confidence: float64(confidences[idx]),
		})
	}
	return dets
}

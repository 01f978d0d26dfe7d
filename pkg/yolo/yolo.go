// Package yolo drives the external object detection toolkit.
//
// Training and inference are delegated to the toolkit. This package only
// builds its invocations and reads the files it leaves.
package yolo

import (
	"context"
	"errors"
)

type TrainOptions struct {
	// pretrained weights to start from
	Weights string

	// dataset manifest (yaml)
	Data string

	Epochs    int
	ImageSize int
	Batch     int

	// outputs are written in Project/Name
	Project string
	Name    string
}

type Trainer interface {
	// Train runs a training and blocks until it finishes.
	//
	// The best checkpoint is left at Project/Name/weights/best.pt .
	Train(ctx context.Context, opts TrainOptions) error
}

type PredictOptions struct {
	// checkpoint to be used
	Model string

	// image file to be inspected
	Source string

	// confidence threshold
	Conf float64

	// outputs are written in Project/Name
	Project string
	Name    string
}

type Prediction struct {
	// number of detected objects
	Detections int

	// path to the image with bounding boxes drawn
	AnnotatedImage string
}

type Detector interface {
	Predict(ctx context.Context, opts PredictOptions) (Prediction, error)
}

var ErrNoAnnotatedImage = errors.New("annotated image is not found")

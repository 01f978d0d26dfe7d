package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/nfnt/resize"
	"github.com/opst/solarscan/pkg/yolo"
)

// Confidence is the threshold of detections.
const Confidence = 0.5

var (
	ErrNoModel      = errors.New("no model is loaded")
	ErrInvalidImage = errors.New("image cannot be decoded")
)

type Result struct {
	Detections int

	// annotated image, encoded
	Image []byte
}

// Service runs predictions with the model in Handle.
type Service struct {
	handle   *Handle
	detector yolo.Detector
	workDir  string
	maxSide  uint
	logger   *log.Logger
}

type Option func(*Service) *Service

// WithMaxSide shrinks annotated images so that they fit in px x px.
//
// 0 leaves images as they are.
func WithMaxSide(px int) Option {
	return func(s *Service) *Service {
		if 0 < px {
			s.maxSide = uint(px)
		}
		return s
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) *Service {
		s.logger = l
		return s
	}
}

func NewService(handle *Handle, detector yolo.Detector, workDir string, options ...Option) *Service {
	s := &Service{
		handle:   handle,
		detector: detector,
		workDir:  workDir,
		logger:   log.New("detector"),
	}
	for _, o := range options {
		s = o(s)
	}
	return s
}

// Predict detects objects in an image (jpeg or png), and returns the annotated image.
//
// Files for the prediction are made in a working directory only for this call,
// and it is removed before returning.
func (s *Service) Predict(ctx context.Context, img []byte) (Result, error) {
	model, ok := s.handle.Get()
	if !ok {
		return Result{}, ErrNoModel
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	work := filepath.Join(s.workDir, uuid.NewString())
	if err := os.MkdirAll(work, 0700); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(work); err != nil {
			s.logger.Warnf("failed to remove working directory %s: %s", work, err)
		}
	}()

	source := filepath.Join(work, "input."+extOf(format))
	if err := os.WriteFile(source, img, 0600); err != nil {
		return Result{}, err
	}

	prediction, err := s.detector.Predict(ctx, yolo.PredictOptions{
		Model:   model.Path,
		Source:  source,
		Conf:    Confidence,
		Project: work,
		Name:    "predict",
	})
	if err != nil {
		return Result{}, err
	}

	annotated, err := os.ReadFile(prediction.AnnotatedImage)
	if err != nil {
		return Result{}, err
	}
	if s.maxSide != 0 {
		if annotated, err = s.shrink(annotated); err != nil {
			return Result{}, err
		}
	}

	return Result{Detections: prediction.Detections, Image: annotated}, nil
}

func (s *Service) shrink(img []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, err
	}
	bounds := decoded.Bounds()
	if bounds.Dx() <= int(s.maxSide) && bounds.Dy() <= int(s.maxSide) {
		return img, nil
	}

	thumb := resize.Thumbnail(s.maxSide, s.maxSide, decoded, resize.Lanczos3)
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumb, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func extOf(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	default:
		return format
	}
}

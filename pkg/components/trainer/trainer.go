package trainer

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/configs/pipeline"
	xe "github.com/opst/solarscan/pkg/errors"
	kio "github.com/opst/solarscan/pkg/io"
	"github.com/opst/solarscan/pkg/yolo"
)

var ErrValidationFailed = errors.New("data validation has failed")

// ModelTrainer fine-tunes the detector on the feature store, and places the best checkpoint
// in the trainer directory.
type ModelTrainer struct {
	validation       artifacts.DataValidationArtifact
	config           pipeline.ModelTrainerConfig
	featureStorePath string
	trainer          yolo.Trainer
	logger           *log.Logger
}

func New(
	validation artifacts.DataValidationArtifact,
	config pipeline.ModelTrainerConfig,
	featureStorePath string,
	trainer yolo.Trainer,
	logger *log.Logger,
) *ModelTrainer {
	return &ModelTrainer{
		validation:       validation,
		config:           config,
		featureStorePath: featureStorePath,
		trainer:          trainer,
		logger:           logger,
	}
}

// InitiateModelTrainer trains the model.
//
// It fails without touching anything when validation has not passed.
func (mt *ModelTrainer) InitiateModelTrainer(ctx context.Context) (artifacts.ModelTrainerArtifact, error) {
	if !mt.validation.ValidationStatus {
		return artifacts.ModelTrainerArtifact{}, xe.Categorize(xe.ErrTraining, ErrValidationFailed)
	}

	manifest, err := mt.PrepareCustomManifest()
	if err != nil {
		return artifacts.ModelTrainerArtifact{}, err
	}

	project, err := filepath.Abs(mt.config.ModelTrainerDir)
	if err != nil {
		return artifacts.ModelTrainerArtifact{}, xe.Categorize(xe.ErrTraining, err)
	}

	mt.logger.Infof(
		"training starts: weights=%s epochs=%d batch=%d imgsz=%d",
		mt.config.WeightName, mt.config.NoEpochs, mt.config.BatchSize, mt.config.ImageSize,
	)
	if err := mt.trainer.Train(ctx, yolo.TrainOptions{
		Weights:   mt.config.WeightName,
		Data:      manifest,
		Epochs:    mt.config.NoEpochs,
		ImageSize: mt.config.ImageSize,
		Batch:     mt.config.BatchSize,
		Project:   project,
		Name:      mt.config.RunName,
	}); err != nil {
		return artifacts.ModelTrainerArtifact{}, xe.CategorizeWithNote(xe.ErrTraining, "training", err)
	}

	best := filepath.Join(project, mt.config.RunName, "weights", "best.pt")
	dest := filepath.Join(project, filepath.Base(mt.config.CheckpointPath()))
	if err := kio.CopyFile(best, dest); err != nil {
		return artifacts.ModelTrainerArtifact{}, xe.CategorizeWithNote(xe.ErrTraining, "copying checkpoint", err)
	}
	mt.logger.Infof("trained model is saved: %s", dest)

	return artifacts.ModelTrainerArtifact{TrainedModelFilePath: dest}, nil
}

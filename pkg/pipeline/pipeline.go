// Package pipeline runs the training stages in order:
// ingestion, validation and training.
package pipeline

import (
	"context"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/components/ingestion"
	"github.com/opst/solarscan/pkg/components/trainer"
	"github.com/opst/solarscan/pkg/components/validation"
	config "github.com/opst/solarscan/pkg/configs/pipeline"
	"github.com/opst/solarscan/pkg/dataset"
	"github.com/opst/solarscan/pkg/yolo"
)

type TrainPipeline struct {
	config  config.Config
	source  dataset.Source
	trainer yolo.Trainer
	logger  *log.Logger
}

func New(conf config.Config, source dataset.Source, trainer yolo.Trainer, logger *log.Logger) *TrainPipeline {
	return &TrainPipeline{config: conf, source: source, trainer: trainer, logger: logger}
}

// NewFromConfig builds TrainPipeline talking to the dataset service and the toolkit command
// as configured.
func NewFromConfig(conf config.Config, logger *log.Logger, options ...dataset.Option) *TrainPipeline {
	options = append(
		[]dataset.Option{
			dataset.WithCredentials(conf.Dataset.Username, conf.Dataset.Key),
			dataset.WithLogger(logger),
		},
		options...,
	)
	source := dataset.NewHTTPSource(conf.Dataset.BaseURL, conf.Dataset.CacheDir, options...)
	cli := yolo.NewCLI(
		conf.Yolo.CommandLine(),
		yolo.WithLogger(logger),
		yolo.WithOutput(logger.Output()),
	)
	return New(conf, source, cli, logger)
}

// Config returns configuration which this pipeline runs with.
func (tp *TrainPipeline) Config() config.Config {
	return tp.config
}

// Ingest runs the ingestion stage.
func (tp *TrainPipeline) Ingest(ctx context.Context) (artifacts.DataIngestionArtifact, error) {
	tp.logger.Info("stage data ingestion: start")
	artifact, err := ingestion.New(tp.config.IngestionConfig(), tp.source, tp.logger).
		InitiateDataIngestion(ctx)
	if err != nil {
		return artifacts.DataIngestionArtifact{}, err
	}
	tp.logger.Infof("stage data ingestion: done. %+v", artifact)
	return artifact, nil
}

// RunUntilValidation runs ingestion and validation.
func (tp *TrainPipeline) RunUntilValidation(ctx context.Context) (artifacts.DataIngestionArtifact, artifacts.DataValidationArtifact, error) {
	ingested, err := tp.Ingest(ctx)
	if err != nil {
		return artifacts.DataIngestionArtifact{}, artifacts.DataValidationArtifact{}, err
	}

	tp.logger.Info("stage data validation: start")
	validated, err := validation.New(ingested, tp.config.ValidationConfig(), tp.logger).
		InitiateDataValidation()
	if err != nil {
		return artifacts.DataIngestionArtifact{}, artifacts.DataValidationArtifact{}, err
	}
	tp.logger.Infof("stage data validation: done. %+v", validated)
	return ingested, validated, nil
}

// Run runs all stages.
//
// Errors from stages are returned as they are.
func (tp *TrainPipeline) Run(ctx context.Context) (artifacts.ModelTrainerArtifact, error) {
	ingested, validated, err := tp.RunUntilValidation(ctx)
	if err != nil {
		return artifacts.ModelTrainerArtifact{}, err
	}

	tp.logger.Info("stage model trainer: start")
	trained, err := trainer.New(
		validated, tp.config.TrainerConfig(), ingested.FeatureStorePath, tp.trainer, tp.logger,
	).InitiateModelTrainer(ctx)
	if err != nil {
		return artifacts.ModelTrainerArtifact{}, err
	}
	tp.logger.Infof("stage model trainer: done. %+v", trained)
	return trained, nil
}

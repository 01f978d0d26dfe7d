package ingestion

import (
	"context"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/configs/pipeline"
	"github.com/opst/solarscan/pkg/dataset"
	xe "github.com/opst/solarscan/pkg/errors"
	kio "github.com/opst/solarscan/pkg/io"
)

// DataIngestion fetches the dataset and places its copy in the feature store.
type DataIngestion struct {
	config pipeline.DataIngestionConfig
	source dataset.Source
	logger *log.Logger
}

func New(config pipeline.DataIngestionConfig, source dataset.Source, logger *log.Logger) *DataIngestion {
	return &DataIngestion{config: config, source: source, logger: logger}
}

// DownloadData fetches the dataset and returns the directory where it is.
func (di *DataIngestion) DownloadData(ctx context.Context) (string, error) {
	di.logger.Infof("downloading dataset: %s", di.config.DatasetHandle)
	path, err := di.source.Download(ctx, di.config.DatasetHandle)
	if err != nil {
		return "", xe.CategorizeWithNote(
			xe.ErrIngestion, "downloading dataset "+di.config.DatasetHandle, err,
		)
	}
	di.logger.Infof("dataset is downloaded at: %s", path)
	return path, nil
}

// CopyDataToFeatureStore copies everything in src into the feature store.
//
// Directories are merged and files with the same name are overwritten.
func (di *DataIngestion) CopyDataToFeatureStore(src string) (string, error) {
	dest := di.config.FeatureStoreFilePath
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", xe.Categorize(xe.ErrIngestion, err)
	}

	if err := kio.CopyTree(src, dest); err != nil {
		return "", xe.CategorizeWithNote(xe.ErrIngestion, "copying dataset to feature store", err)
	}
	di.logger.Infof("dataset is copied to feature store: %s", dest)
	return dest, nil
}

func (di *DataIngestion) InitiateDataIngestion(ctx context.Context) (artifacts.DataIngestionArtifact, error) {
	downloaded, err := di.DownloadData(ctx)
	if err != nil {
		return artifacts.DataIngestionArtifact{}, err
	}

	featureStore, err := di.CopyDataToFeatureStore(downloaded)
	if err != nil {
		return artifacts.DataIngestionArtifact{}, err
	}

	return artifacts.DataIngestionArtifact{
		DataDownloadPath: downloaded,
		FeatureStorePath: featureStore,
	}, nil
}

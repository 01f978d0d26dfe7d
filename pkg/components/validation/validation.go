package validation

import (
	"os"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/configs/pipeline"
	xe "github.com/opst/solarscan/pkg/errors"
	kio "github.com/opst/solarscan/pkg/io"
)

// DataValidation checks that the feature store has every required entry.
//
// The check is shallow: only names of immediate children are compared.
type DataValidation struct {
	ingestion artifacts.DataIngestionArtifact
	config    pipeline.DataValidationConfig
	logger    *log.Logger
}

func New(ingestion artifacts.DataIngestionArtifact, config pipeline.DataValidationConfig, logger *log.Logger) *DataValidation {
	return &DataValidation{ingestion: ingestion, config: config, logger: logger}
}

// ValidateAllFilesExist reports whether all required entries are in the feature store,
// and records the result into the status file.
func (dv *DataValidation) ValidateAllFilesExist() (bool, error) {
	ok, _, err := dv.validate()
	return ok, err
}

func (dv *DataValidation) validate() (bool, []string, error) {
	entries, err := os.ReadDir(dv.ingestion.FeatureStorePath)
	if err != nil {
		return false, nil, xe.CategorizeWithNote(xe.ErrValidationIO, "reading feature store", err)
	}

	present := map[string]struct{}{}
	for _, e := range entries {
		present[e.Name()] = struct{}{}
	}

	missing := []string{}
	for _, name := range dv.config.RequiredFileList {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	status := len(missing) == 0

	f, err := kio.CreateAll(dv.config.ValidStatusFileDir, 0644, 0755)
	if err != nil {
		return false, nil, xe.CategorizeWithNote(xe.ErrValidationIO, "writing status file", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatStatus(status, missing)); err != nil {
		return false, nil, xe.CategorizeWithNote(xe.ErrValidationIO, "writing status file", err)
	}
	if err := f.Close(); err != nil {
		return false, nil, xe.CategorizeWithNote(xe.ErrValidationIO, "writing status file", err)
	}

	if status {
		dv.logger.Infof("all required files are found in %s", dv.ingestion.FeatureStorePath)
	} else {
		dv.logger.Warnf("required files are missing in %s: %v", dv.ingestion.FeatureStorePath, missing)
	}
	return status, missing, nil
}

// InitiateDataValidation validates the feature store.
//
// Missing files make ValidationStatus false, but are not an error.
func (dv *DataValidation) InitiateDataValidation() (artifacts.DataValidationArtifact, error) {
	status, missing, err := dv.validate()
	if err != nil {
		return artifacts.DataValidationArtifact{}, err
	}
	return artifacts.DataValidationArtifact{
		ValidationStatus: status,
		StatusFilePath:   dv.config.ValidStatusFileDir,
		MissingFiles:     missing,
	}, nil
}

// Package artifacts defines what each stage of the training pipeline hands to the next.
package artifacts

type DataIngestionArtifact struct {
	// where the raw dataset is placed, in the local dataset cache.
	DataDownloadPath string

	// copy of the dataset used by later stages.
	FeatureStorePath string
}

type DataValidationArtifact struct {
	ValidationStatus bool

	// the status report file written by validation.
	StatusFilePath string

	// names of required entries which were not found. Empty when ValidationStatus is true.
	MissingFiles []string
}

type ModelTrainerArtifact struct {
	// path of the trained checkpoint, copied out of the training run.
	TrainedModelFilePath string
}

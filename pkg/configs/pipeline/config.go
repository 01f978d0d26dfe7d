package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/opst/solarscan/pkg/configs/internal/loader"
	xe "github.com/opst/solarscan/pkg/errors"
)

const (
	ArtifactsDir = "artifacts"

	DataIngestionDirName         = "data_ingestion"
	DataIngestionFeatureStoreDir = "feature_store"

	// dataset handle on the hosting service. This is not configurable.
	DatasetHandle = "pkdarabi/solarpanel"

	DataValidationDirName    = "data_validation"
	DataValidationStatusFile = "status.txt"

	ModelTrainerDirName           = "model_trainer"
	ModelTrainerPretrainedWeights = "weights/yolo26n.pt"
	ModelTrainerNoEpochs          = 1
	ModelTrainerBatchSize         = 16
	ModelTrainerImageSize         = 640
	ModelTrainerRunName           = "yolo26-solarpanel"

	DefaultDatasetBaseURL = "https://www.kaggle.com/api/v1"
	DefaultYoloCommand    = "yolo"
)

// Section is the key of pipeline configuration in a config file.
const Section = "pipeline"

// RequiredFiles returns names which should be found in the feature store.
func RequiredFiles() []string {
	return []string{"train", "valid", "test", "data.yaml"}
}

// Config is configuration of the training pipeline as written in config files.
//
// Configuration objects for each stage are derived from this.
type Config struct {
	ArtifactsDir string         `koanf:"artifacts_dir"`
	Dataset      DatasetConfig  `koanf:"dataset"`
	Training     TrainingConfig `koanf:"model_trainer"`
	Yolo         YoloConfig     `koanf:"yolo"`
}

type DatasetConfig struct {
	// root URL of the dataset hosting API.
	BaseURL string `koanf:"base_url"`

	// directory where downloaded datasets are cached.
	CacheDir string `koanf:"cache_dir"`

	// credentials. When empty, KAGGLE_USERNAME and KAGGLE_KEY are used.
	Username string `koanf:"username"`
	Key      string `koanf:"key"`
}

type TrainingConfig struct {
	WeightName string `koanf:"weight_name"`
	Epochs     int    `koanf:"epochs"`
	BatchSize  int    `koanf:"batch_size"`
}

type YoloConfig struct {
	// command line invoking the detection toolkit, split by spaces.
	//
	// For example: "yolo", or "python -m ultralytics".
	Command string `koanf:"command"`
}

// CommandLine returns Command split into arguments.
func (y YoloConfig) CommandLine() []string {
	return strings.Fields(y.Command)
}

type TrainingPipelineConfig struct {
	ArtifactDir string
}

type DataIngestionConfig struct {
	DataIngestionDir     string
	FeatureStoreFilePath string
	DatasetHandle        string
}

type DataValidationConfig struct {
	DataValidationDir  string
	ValidStatusFileDir string
	RequiredFileList   []string
}

type ModelTrainerConfig struct {
	ModelTrainerDir string
	WeightName      string
	NoEpochs        int
	BatchSize       int
	ImageSize       int
	RunName         string
}

// Default returns configuration with default values.
func Default() Config {
	cache := ".cache"
	if d, err := os.UserCacheDir(); err == nil {
		cache = d
	}

	return Config{
		ArtifactsDir: ArtifactsDir,
		Dataset: DatasetConfig{
			BaseURL:  DefaultDatasetBaseURL,
			CacheDir: filepath.Join(cache, "solarscan"),
		},
		Training: TrainingConfig{
			WeightName: ModelTrainerPretrainedWeights,
			Epochs:     ModelTrainerNoEpochs,
			BatchSize:  ModelTrainerBatchSize,
		},
		Yolo: YoloConfig{Command: DefaultYoloCommand},
	}
}

// Load reads configuration from a yaml file and environment variables.
//
// When filepath is empty, only defaults and environment variables are used.
func Load(filepath string) (*Config, error) {
	conf := Default()
	if err := loader.Load(&conf, Section, loader.EnvPrefix, loader.File(filepath)); err != nil {
		return nil, xe.Categorize(xe.ErrConfig, err)
	}
	return finish(conf)
}

// Unmarshal reads configuration from yaml content and environment variables.
func Unmarshal(content []byte) (*Config, error) {
	conf := Default()
	if err := loader.Load(&conf, Section, loader.EnvPrefix, rawbytes.Provider(content)); err != nil {
		return nil, xe.Categorize(xe.ErrConfig, err)
	}
	return finish(conf)
}

// Fill completes credentials from the environment and validates c.
//
// Load and Unmarshal call this. Use it for Config embedded in other configurations.
func (c *Config) Fill() error {
	if c.Dataset.Username == "" {
		c.Dataset.Username = os.Getenv("KAGGLE_USERNAME")
	}
	if c.Dataset.Key == "" {
		c.Dataset.Key = os.Getenv("KAGGLE_KEY")
	}
	return c.Validate()
}

func finish(conf Config) (*Config, error) {
	if err := conf.Fill(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks values which cannot be used.
func (c Config) Validate() error {
	problems := []string{}
	if c.ArtifactsDir == "" {
		problems = append(problems, "artifacts_dir is empty")
	}
	if c.Training.WeightName == "" {
		problems = append(problems, "model_trainer.weight_name is empty")
	}
	if c.Training.Epochs <= 0 {
		problems = append(problems, fmt.Sprintf("model_trainer.epochs should be positive: %d", c.Training.Epochs))
	}
	if c.Training.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("model_trainer.batch_size should be positive: %d", c.Training.BatchSize))
	}
	if len(c.Yolo.CommandLine()) == 0 {
		problems = append(problems, "yolo.command is empty")
	}
	if c.Dataset.CacheDir == "" {
		problems = append(problems, "dataset.cache_dir is empty")
	}

	if len(problems) != 0 {
		return xe.Categorize(xe.ErrConfig, fmt.Errorf("%s", strings.Join(problems, "; ")))
	}
	return nil
}

func (c Config) TrainingPipeline() TrainingPipelineConfig {
	return TrainingPipelineConfig{ArtifactDir: c.ArtifactsDir}
}

func (c Config) IngestionConfig() DataIngestionConfig {
	dir := filepath.Join(c.ArtifactsDir, DataIngestionDirName)
	return DataIngestionConfig{
		DataIngestionDir:     dir,
		FeatureStoreFilePath: filepath.Join(dir, DataIngestionFeatureStoreDir),
		DatasetHandle:        DatasetHandle,
	}
}

func (c Config) ValidationConfig() DataValidationConfig {
	dir := filepath.Join(c.ArtifactsDir, DataValidationDirName)
	return DataValidationConfig{
		DataValidationDir:  dir,
		ValidStatusFileDir: filepath.Join(dir, DataValidationStatusFile),
		RequiredFileList:   RequiredFiles(),
	}
}

func (c Config) TrainerConfig() ModelTrainerConfig {
	return ModelTrainerConfig{
		ModelTrainerDir: filepath.Join(c.ArtifactsDir, ModelTrainerDirName),
		WeightName:      c.Training.WeightName,
		NoEpochs:        c.Training.Epochs,
		BatchSize:       c.Training.BatchSize,
		ImageSize:       ModelTrainerImageSize,
		RunName:         ModelTrainerRunName,
	}
}

// CheckpointPath is where the trained checkpoint is placed after training.
func (m ModelTrainerConfig) CheckpointPath() string {
	return filepath.Join(m.ModelTrainerDir, "best.pt")
}

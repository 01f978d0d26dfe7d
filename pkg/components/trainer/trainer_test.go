package trainer_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/components/trainer"
	"github.com/opst/solarscan/pkg/configs/pipeline"
	xe "github.com/opst/solarscan/pkg/errors"
	"github.com/opst/solarscan/pkg/yolo"
	"gopkg.in/yaml.v3"
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

// fakeTrainer leaves a checkpoint where the toolkit would.
type fakeTrainer struct {
	called int
	got    yolo.TrainOptions

	leaveCheckpoint bool
	err             error
}

func (f *fakeTrainer) Train(_ context.Context, opts yolo.TrainOptions) error {
	f.called += 1
	f.got = opts
	if f.err != nil {
		return f.err
	}
	if !f.leaveCheckpoint {
		return nil
	}
	weights := filepath.Join(opts.Project, opts.Name, "weights")
	if err := os.MkdirAll(weights, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(weights, "best.pt"), []byte("checkpoint"), 0644)
}

type fixture struct {
	root         string
	featureStore string
	config       pipeline.ModelTrainerConfig
}

func setup(t *testing.T, manifest string) fixture {
	t.Helper()
	root := t.TempDir()
	featureStore := filepath.Join(root, "feature_store")
	for _, d := range []string{"train/images", "valid/images", "test/images"} {
		if err := os.MkdirAll(filepath.Join(featureStore, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(featureStore, "data.yaml"), []byte(manifest), 0644); err != nil {
			t.Fatal(err)
		}
	}

	conf := pipeline.Default()
	conf.ArtifactsDir = filepath.Join(root, "artifacts")
	conf.Training.Epochs = 2
	conf.Training.BatchSize = 4

	return fixture{root: root, featureStore: featureStore, config: conf.TrainerConfig()}
}

const sourceManifest = `
train: ../train/images
val: ../valid/images
test: ../test/images

nc: 2
names: ['panel', 'dusty-panel']

roboflow:
  workspace: someone
  project: solar
`

func TestInitiateModelTrainer(t *testing.T) {
	t.Run("it trains and copies the best checkpoint", func(t *testing.T) {
		fx := setup(t, sourceManifest)
		fake := &fakeTrainer{leaveCheckpoint: true}
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, fake, quietLogger(),
		)

		artifact, err := testee.InitiateModelTrainer(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		if artifact.TrainedModelFilePath != fx.config.CheckpointPath() {
			t.Errorf("checkpoint path: (actual, expected) = (%s, %s)", artifact.TrainedModelFilePath, fx.config.CheckpointPath())
		}
		content, err := os.ReadFile(artifact.TrainedModelFilePath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "checkpoint" {
			t.Errorf("checkpoint content: %s", string(content))
		}

		if fake.called != 1 {
			t.Errorf("trainer is called %d times", fake.called)
		}
		expected := yolo.TrainOptions{
			Weights:   "weights/yolo26n.pt",
			Data:      filepath.Join(fx.config.ModelTrainerDir, trainer.CustomManifest),
			Epochs:    2,
			ImageSize: 640,
			Batch:     4,
			Project:   fx.config.ModelTrainerDir,
			Name:      "yolo26-solarpanel",
		}
		if fake.got != expected {
			t.Errorf("train options:\n===actual===\n%+v\n===expected===\n%+v", fake.got, expected)
		}
	})

	t.Run("when validation has failed, it fails before doing anything", func(t *testing.T) {
		fx := setup(t, sourceManifest)
		fake := &fakeTrainer{leaveCheckpoint: true}
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: false},
			fx.config, fx.featureStore, fake, quietLogger(),
		)

		_, err := testee.InitiateModelTrainer(context.Background())
		if !errors.Is(err, xe.ErrTraining) {
			t.Errorf("error is not ErrTraining: %v", err)
		}
		if !errors.Is(err, trainer.ErrValidationFailed) {
			t.Errorf("error is not ErrValidationFailed: %v", err)
		}
		if fake.called != 0 {
			t.Errorf("trainer is called")
		}
		if _, err := os.Stat(fx.config.ModelTrainerDir); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("trainer directory is created: %v", err)
		}
	})

	t.Run("when training fails, it returns training error", func(t *testing.T) {
		fx := setup(t, sourceManifest)
		cause := errors.New("exit status 1")
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, &fakeTrainer{err: cause}, quietLogger(),
		)

		_, err := testee.InitiateModelTrainer(context.Background())
		if !errors.Is(err, xe.ErrTraining) {
			t.Errorf("error is not ErrTraining: %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("cause is lost: %v", err)
		}
	})

	t.Run("when training leaves no checkpoint, it returns training error", func(t *testing.T) {
		fx := setup(t, sourceManifest)
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, &fakeTrainer{leaveCheckpoint: false}, quietLogger(),
		)

		_, err := testee.InitiateModelTrainer(context.Background())
		if !errors.Is(err, xe.ErrTraining) {
			t.Errorf("error is not ErrTraining: %v", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("cause is lost: %v", err)
		}
	})

	t.Run("when manifest is broken, it returns config error without training", func(t *testing.T) {
		fx := setup(t, "nc: 3\nnames: ['a', 'b']\n")
		fake := &fakeTrainer{leaveCheckpoint: true}
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, fake, quietLogger(),
		)

		_, err := testee.InitiateModelTrainer(context.Background())
		if !errors.Is(err, xe.ErrConfig) {
			t.Errorf("error is not ErrConfig: %v", err)
		}
		if fake.called != 0 {
			t.Errorf("trainer is called")
		}
	})
}

func TestPrepareCustomManifest(t *testing.T) {
	t.Run("it points splits to the feature store and keeps classes", func(t *testing.T) {
		fx := setup(t, sourceManifest)
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, &fakeTrainer{}, quietLogger(),
		)

		path, err := testee.PrepareCustomManifest()
		if err != nil {
			t.Fatal(err)
		}
		if path != filepath.Join(fx.config.ModelTrainerDir, trainer.CustomManifest) {
			t.Errorf("manifest path: %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		actual := struct {
			Train string   `yaml:"train"`
			Val   string   `yaml:"val"`
			Test  string   `yaml:"test"`
			Nc    int      `yaml:"nc"`
			Names []string `yaml:"names"`
			Other any      `yaml:"roboflow"`
		}{}
		if err := yaml.Unmarshal(content, &actual); err != nil {
			t.Fatal(err)
		}

		if actual.Train != filepath.Join(fx.featureStore, "train", "images") {
			t.Errorf("train: %s", actual.Train)
		}
		if actual.Val != filepath.Join(fx.featureStore, "valid", "images") {
			t.Errorf("val: %s", actual.Val)
		}
		if actual.Test != filepath.Join(fx.featureStore, "test", "images") {
			t.Errorf("test: %s", actual.Test)
		}
		if actual.Nc != 2 {
			t.Errorf("nc: %d", actual.Nc)
		}
		if len(actual.Names) != 2 || actual.Names[0] != "panel" || actual.Names[1] != "dusty-panel" {
			t.Errorf("names: %v", actual.Names)
		}
		if actual.Other != nil {
			t.Errorf("unrelated keys are carried: %v", actual.Other)
		}
	})

	t.Run("names in index mapping are accepted", func(t *testing.T) {
		fx := setup(t, "nc: 2\nnames:\n  0: panel\n  1: dusty-panel\n")
		testee := trainer.New(
			artifacts.DataValidationArtifact{ValidationStatus: true},
			fx.config, fx.featureStore, &fakeTrainer{}, quietLogger(),
		)

		path, err := testee.PrepareCustomManifest()
		if err != nil {
			t.Fatal(err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		actual := struct {
			Names map[int]string `yaml:"names"`
		}{}
		if err := yaml.Unmarshal(content, &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Names[0] != "panel" || actual.Names[1] != "dusty-panel" {
			t.Errorf("names: %v", actual.Names)
		}
	})

	type When struct {
		manifest string
	}
	theory := func(when When) func(*testing.T) {
		return func(t *testing.T) {
			fx := setup(t, when.manifest)
			testee := trainer.New(
				artifacts.DataValidationArtifact{ValidationStatus: true},
				fx.config, fx.featureStore, &fakeTrainer{}, quietLogger(),
			)
			_, err := testee.PrepareCustomManifest()
			if !errors.Is(err, xe.ErrConfig) {
				t.Errorf("error is not ErrConfig: %v", err)
			}
		}
	}

	t.Run("missing manifest is config error", theory(When{manifest: ""}))
	t.Run("broken yaml is config error", theory(When{manifest: "nc: [\n"}))
	t.Run("non-mapping manifest is config error", theory(When{manifest: "- a\n- b\n"}))
	t.Run("missing nc is config error", theory(When{manifest: "names: ['a']\n"}))
	t.Run("missing names is config error", theory(When{manifest: "nc: 1\n"}))
	t.Run("non-integer nc is config error", theory(When{manifest: "nc: one\nnames: ['a']\n"}))
	t.Run("scalar names is config error", theory(When{manifest: "nc: 1\nnames: a\n"}))
	t.Run("nc mismatch is config error", theory(When{manifest: "nc: 1\nnames: ['a', 'b']\n"}))
}

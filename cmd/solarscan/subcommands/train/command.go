package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/cmd/solarscan/subcommands/common"
	"github.com/opst/solarscan/pkg/artifacts"
	config "github.com/opst/solarscan/pkg/configs/pipeline"
	"github.com/opst/solarscan/pkg/configs/server"
	"github.com/opst/solarscan/pkg/dataset"
	"github.com/opst/solarscan/pkg/pipeline"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Epochs  int    `flag:"epochs" help:"number of epochs. 0 uses the configured value."`
	Batch   int    `flag:"batch" help:"batch size. 0 uses the configured value."`
	Weights string `flag:"weights" help:"pretrained weights to start from. empty uses the configured value."`
}

type Runner interface {
	Run(ctx context.Context) (artifacts.ModelTrainerArtifact, error)
}

// NewRunner builds a Runner from configuration.
type NewRunner func(conf config.Config, logger *log.Logger, progress dataset.Progress) Runner

func defaultRunner(conf config.Config, logger *log.Logger, progress dataset.Progress) Runner {
	return pipeline.NewFromConfig(conf, logger, dataset.WithProgress(progress))
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"run the whole training pipeline: ingestion, validation and training.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(defaultRunner)),
		flarc.WithDescription(`
Download the dataset, validate it and fine-tune the detection model.

The trained checkpoint is placed at <artifacts_dir>/model_trainer/best.pt ,
and its path is written to stdout.
A running solarscand watching the same artifacts directory picks it up.

Override training parameters of the config file:

    {{ .Command }} --epochs 50 --batch 8
`),
	)
}

func Task(newRunner NewRunner) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		conf *server.Config,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		pconf := conf.Pipeline
		flags := cl.Flags()
		if flags.Epochs != 0 {
			pconf.Training.Epochs = flags.Epochs
		}
		if flags.Batch != 0 {
			pconf.Training.BatchSize = flags.Batch
		}
		if flags.Weights != "" {
			pconf.Training.WeightName = flags.Weights
		}
		if err := pconf.Validate(); err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}

		progress := common.NewProgress(cl.Stderr(), "downloading dataset:")
		defer progress.Finish()

		trained, err := newRunner(pconf, logger, progress).Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("training is completed.")
		_, err = fmt.Fprintln(cl.Stdout(), trained.TrainedModelFilePath)
		return err
	}
}

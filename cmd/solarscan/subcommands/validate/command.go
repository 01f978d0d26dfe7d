package validate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/cmd/solarscan/subcommands/common"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/components/validation"
	config "github.com/opst/solarscan/pkg/configs/pipeline"
	"github.com/opst/solarscan/pkg/configs/server"
	"github.com/opst/solarscan/pkg/dataset"
	"github.com/opst/solarscan/pkg/pipeline"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Offline bool `flag:"offline" help:"validate the current feature store without downloading the dataset."`
}

type Validator interface {
	RunUntilValidation(ctx context.Context) (artifacts.DataIngestionArtifact, artifacts.DataValidationArtifact, error)
}

type NewValidator func(conf config.Config, logger *log.Logger, progress dataset.Progress) Validator

func defaultValidator(conf config.Config, logger *log.Logger, progress dataset.Progress) Validator {
	return pipeline.NewFromConfig(conf, logger, dataset.WithProgress(progress))
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"check the feature store has everything training needs.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(defaultValidator)),
		flarc.WithDescription(`
Ingest the dataset, then check that the feature store contains
train, valid, test and data.yaml .

The status file is written to stdout. When something is missing, it exits with failure.

To check the feature store already ingested:

    {{ .Command }} --offline
`),
	)
}

func Task(newValidator NewValidator) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		conf *server.Config,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		var validated artifacts.DataValidationArtifact
		if cl.Flags().Offline {
			ingested := artifacts.DataIngestionArtifact{
				FeatureStorePath: conf.Pipeline.IngestionConfig().FeatureStoreFilePath,
			}
			v, err := validation.New(ingested, conf.Pipeline.ValidationConfig(), logger).InitiateDataValidation()
			if err != nil {
				return err
			}
			validated = v
		} else {
			progress := common.NewProgress(cl.Stderr(), "downloading dataset:")
			defer progress.Finish()

			_, v, err := newValidator(conf.Pipeline, logger, progress).RunUntilValidation(ctx)
			if err != nil {
				return err
			}
			validated = v
		}

		ok, missing, err := validation.ReadStatusFile(validated.StatusFilePath)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(cl.Stdout(), validation.FormatStatus(ok, missing)); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("feature store is incomplete. missing: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}

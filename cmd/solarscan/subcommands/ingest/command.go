package ingest

import (
	"context"
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

type Ingester interface {
	Ingest(ctx context.Context) (artifacts.DataIngestionArtifact, error)
}

type NewIngester func(conf config.Config, logger *log.Logger, progress dataset.Progress) Ingester

func defaultIngester(conf config.Config, logger *log.Logger, progress dataset.Progress) Ingester {
	return pipeline.NewFromConfig(conf, logger, dataset.WithProgress(progress))
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"download the dataset into the feature store.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task(defaultIngester)),
		flarc.WithDescription(`
Download the dataset (or reuse the cached one), and copy it into
<artifacts_dir>/data_ingestion/feature_store .

The feature store path is written to stdout.
`),
	)
}

func Task(newIngester NewIngester) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		conf *server.Config,
		cl flarc.Commandline[struct{}],
		_ []any,
	) error {
		progress := common.NewProgress(cl.Stderr(), "downloading dataset:")
		defer progress.Finish()

		ingested, err := newIngester(conf.Pipeline, logger, progress).Ingest(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cl.Stdout(), ingested.FeatureStorePath)
		return err
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/cmd/solarscan/subcommands/common"
	subconf "github.com/opst/solarscan/cmd/solarscan/subcommands/config"
	subingest "github.com/opst/solarscan/cmd/solarscan/subcommands/ingest"
	subtrain "github.com/opst/solarscan/cmd/solarscan/subcommands/train"
	subvalid "github.com/opst/solarscan/cmd/solarscan/subcommands/validate"
	subver "github.com/opst/solarscan/cmd/solarscan/subcommands/version"
	"github.com/opst/solarscan/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	logger := log.New("solarscan")

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	train := try.To(subtrain.New()).OrFatal(logger)
	ingest := try.To(subingest.New()).OrFatal(logger)
	validate := try.To(subvalid.New()).OrFatal(logger)
	conf := try.To(subconf.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	solarscan := try.To(
		flarc.NewCommandGroup(
			"solar panel detection training pipeline",
			common.DefaultCommonFlags(),
			flarc.WithSubcommand("train", train),
			flarc.WithSubcommand("ingest", ingest),
			flarc.WithSubcommand("validate", validate),
			flarc.WithSubcommand("config", conf),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, solarscan, flarc.WithHelp(true)))
}

package config

import (
	"context"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/cmd/solarscan/subcommands/common"
	"github.com/opst/solarscan/pkg/configs/server"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"show the effective configuration.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Print configuration merged from defaults, the config file and SOLARSCAN_* environment variables,
as yaml. Credentials are masked.
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		_ context.Context,
		_ *log.Logger,
		conf *server.Config,
		cl flarc.Commandline[struct{}],
		_ []any,
	) error {
		dumped, err := conf.Dump()
		if err != nil {
			return err
		}
		_, err = cl.Stdout().Write(dumped)
		return err
	}
}

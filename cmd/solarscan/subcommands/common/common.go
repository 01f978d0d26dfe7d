package common

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/configs/server"
	"github.com/opst/solarscan/pkg/utils"
	"github.com/opst/solarscan/pkg/utils/echoutil"
	"github.com/youta-t/flarc"
)

// ConfigFileName is looked up from the working directory upward when --config is not given.
const ConfigFileName = "solarscan.yaml"

// CommonFlags are flags accepted by every subcommand.
type CommonFlags struct {
	Config   string `flag:"config" help:"path to config file (yaml). default: solarscan.yaml in the working directory or its ancestors."`
	LogLevel string `flag:"loglevel" help:"log level. debug|info|warn|error|off"`
}

func DefaultCommonFlags() CommonFlags {
	return CommonFlags{LogLevel: "info"}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	conf *server.Config,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask converts task to flarc.Task.
//
// It picks CommonFlags from positional params, loads configuration and
// prepares a logger writing to stderr.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var cf CommonFlags
		found := false
		rest := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				cf = v
			default:
				rest = append(rest, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		lvl, err := echoutil.ParseLevel(cf.LogLevel)
		if err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}
		logger := log.New(cl.Fullname())
		logger.SetOutput(cl.Stderr())
		logger.SetLevel(lvl)

		path := cf.Config
		if path == "" {
			if wd, err := os.Getwd(); err == nil {
				if found, err := utils.SearchFileUpward(wd, ConfigFileName); err == nil {
					logger.Infof("config file: %s", found)
					path = found
				}
			}
		}

		conf, err := server.LoadServerConfig(path)
		if err != nil {
			return fmt.Errorf("can not read configuration: %w", err)
		}

		return task(ctx, logger, conf, cl, rest)
	}
}

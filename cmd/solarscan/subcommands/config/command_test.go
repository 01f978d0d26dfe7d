package config_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	subconf "github.com/opst/solarscan/cmd/solarscan/subcommands/config"
	"github.com/opst/solarscan/cmd/solarscan/subcommands/internal/commandline"
	"github.com/opst/solarscan/pkg/configs/server"
)

func TestTask(t *testing.T) {
	t.Run("it prints configuration with credentials masked", func(t *testing.T) {
		conf := server.Default()
		conf.Port = 18080
		conf.Pipeline.Dataset.Username = "someone"
		conf.Pipeline.Dataset.Key = "very-secret"

		stdout := new(strings.Builder)
		cl := commandline.Fake[struct{}]{Out: stdout, Err: io.Discard}

		if err := subconf.Task()(context.Background(), log.New("test"), &conf, cl, nil); err != nil {
			t.Fatal(err)
		}

		got := stdout.String()
		if strings.Contains(got, "very-secret") {
			t.Errorf("credential is leaked:\n%s", got)
		}
		for _, want := range []string{"port: 18080", "username: someone", "********"} {
			if !strings.Contains(got, want) {
				t.Errorf("%q is not found in:\n%s", want, got)
			}
		}
	})
}

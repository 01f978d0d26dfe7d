package server

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/opst/solarscan/pkg/configs/internal/loader"
	"github.com/opst/solarscan/pkg/configs/pipeline"
	xe "github.com/opst/solarscan/pkg/errors"
)

type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// debug | info | warn | error | off
	LogLevel string `koanf:"loglevel"`

	// directory where per-request working directories for prediction are made.
	WorkDir string `koanf:"work_dir"`

	// annotated images are shrunk to fit in this size (in pixels) before returned.
	//
	// 0 disables shrinking.
	MaxImageSide int `koanf:"max_image_side"`

	Pipeline pipeline.Config `koanf:"pipeline"`
}

func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8080,
		LogLevel: "info",
		WorkDir:  filepath.Join(os.TempDir(), "solarscan"),
		Pipeline: pipeline.Default(),
	}
}

// Address returns host:port to listen on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func LoadServerConfig(filepath string) (*Config, error) {
	conf := Default()
	if err := loader.Load(&conf, "", loader.EnvPrefix, loader.File(filepath)); err != nil {
		return nil, xe.Categorize(xe.ErrConfig, err)
	}
	return finish(conf)
}

func Unmarshal(content []byte) (*Config, error) {
	conf := Default()
	if err := loader.Load(&conf, "", loader.EnvPrefix, rawbytes.Provider(content)); err != nil {
		return nil, xe.Categorize(xe.ErrConfig, err)
	}
	return finish(conf)
}

func finish(conf Config) (*Config, error) {
	if conf.Port <= 0 || 65535 < conf.Port {
		return nil, xe.Categorize(xe.ErrConfig, fmt.Errorf("port is out of range: %d", conf.Port))
	}
	if conf.MaxImageSide < 0 {
		return nil, xe.Categorize(xe.ErrConfig, fmt.Errorf("max_image_side should not be negative: %d", conf.MaxImageSide))
	}
	if conf.WorkDir == "" {
		return nil, xe.Categorize(xe.ErrConfig, fmt.Errorf("work_dir is empty"))
	}
	if err := conf.Pipeline.Fill(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Dump renders effective configuration as yaml.
//
// Credentials are masked.
func (c Config) Dump() ([]byte, error) {
	if c.Pipeline.Dataset.Key != "" {
		c.Pipeline.Dataset.Key = "********"
	}
	return loader.Dump(c)
}

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/cmd/solarscand/handlers"
	apierr "github.com/opst/solarscan/pkg/api/errors"
	"github.com/opst/solarscan/pkg/buildtime"
	"github.com/opst/solarscan/pkg/configs/server"
	"github.com/opst/solarscan/pkg/detector"
	"github.com/opst/solarscan/pkg/metrics"
	"github.com/opst/solarscan/pkg/pipeline"
	"github.com/opst/solarscan/pkg/utils/echoutil"
	"github.com/opst/solarscan/pkg/utils/filewatch"
	"github.com/opst/solarscan/pkg/yolo"
)

func main() {
	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off (default: as config)")
	flag.Parse()

	logger := log.New("solarscand")

	conf, err := server.LoadServerConfig(*configPath)
	if err != nil {
		logger.Fatalf("can not read configuration: %s", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger

	level := conf.LogLevel
	if *loglevel != "" {
		level = *loglevel
	}
	echoutil.SetLevel(e, level)
	e.HTTPErrorHandler = apierr.HTTPErrorHandler(e)
	e.Renderer = handlers.NewRenderer()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(echoutil.LogHandlerFunc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("solarscand %s", buildtime.VersionString())

	if err := os.MkdirAll(conf.WorkDir, os.FileMode(0o700)); err != nil {
		logger.Fatalf("can not prepare work directory: %s", err)
	}

	m := metrics.New()
	handle := detector.NewHandle(nil)
	m.ModelLoaded(false)

	checkpoint := conf.Pipeline.TrainerConfig().CheckpointPath()
	if model, err := detector.Load(checkpoint); err == nil {
		handle.Swap(model)
		m.ModelLoaded(true)
		logger.Infof("model is loaded: %s", model.Path)
	} else if errors.Is(err, fs.ErrNotExist) {
		logger.Infof("no model is found at %s. train via /train first.", checkpoint)
	} else {
		logger.Warnf("model at %s cannot be loaded: %s", checkpoint, err)
	}

	// trainings by other processes (for example, `solarscan train`) replace the checkpoint.
	trainerDir := filepath.Dir(checkpoint)
	if err := os.MkdirAll(trainerDir, os.FileMode(0o755)); err != nil {
		logger.Fatalf("can not prepare model directory: %s", err)
	}
	if _, err := filewatch.Watch(ctx, reloader(handle, m, checkpoint, logger), trainerDir); err != nil {
		logger.Fatalf("can not watch model directory: %s", err)
	}

	train := pipeline.NewFromConfig(conf.Pipeline, logger)
	cli := yolo.NewCLI(
		conf.Pipeline.Yolo.CommandLine(),
		yolo.WithLogger(logger),
		yolo.WithOutput(logger.Output()),
	)
	svc := detector.NewService(
		handle, cli, conf.WorkDir,
		detector.WithMaxSide(conf.MaxImageSide),
		detector.WithLogger(logger),
	)

	e.GET("/", handlers.IndexHandler(handle))
	e.GET("/train", handlers.TrainHandler(train, handle, m))
	e.POST("/predict", handlers.PredictHandler(svc, m))
	e.GET("/health", handlers.HealthHandler(handle))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	logger.Info("registered routes:")
	for _, r := range e.Routes() {
		logger.Info(r.Method, " ", r.Path)
	}

	if *configPath != "" {
		cctx, cancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			logger.Fatalf("can not watch configuration: %s", err)
		}
		defer cancel()
		context.AfterFunc(cctx, func() {
			if ctx.Err() == nil {
				logger.Warn("config file is updated. quit to restart server.")
			}
			stop()
		})
	}

	context.AfterFunc(ctx, func() {
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			logger.Errorf("error on shutdown: %s", err)
		}
	})

	if err := e.Start(conf.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	httptestutil "github.com/opst/solarscan/internal/testutils/http"
	apierr "github.com/opst/solarscan/pkg/api/errors"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/detector"
	xe "github.com/opst/solarscan/pkg/errors"
	"github.com/opst/solarscan/pkg/metrics"
	"github.com/stretchr/testify/require"

	"github.com/opst/solarscan/cmd/solarscand/handlers"
)

type runnerFunc func(context.Context) (artifacts.ModelTrainerArtifact, error)

func (f runnerFunc) Run(ctx context.Context) (artifacts.ModelTrainerArtifact, error) {
	return f(ctx)
}

func checkpoint(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "best.pt")
	if err := os.WriteFile(path, []byte("weights"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrainHandler(t *testing.T) {
	t.Run("it runs the pipeline and serves the trained model", func(t *testing.T) {
		path := checkpoint(t)
		handle := detector.NewHandle(nil)
		m := metrics.New()

		e := newEcho()
		e.GET("/train", handlers.TrainHandler(
			runnerFunc(func(context.Context) (artifacts.ModelTrainerArtifact, error) {
				return artifacts.ModelTrainerArtifact{TrainedModelFilePath: path}, nil
			}),
			handle, m,
		))

		resp := httptestutil.Serve(e, http.MethodGet, "/train", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(
			t,
			handlers.TrainResponse{Message: "Training completed successfully", ModelPath: path},
			httptestutil.DecodeJSON[handlers.TrainResponse](t, resp),
		)

		model, ok := handle.Get()
		require.True(t, ok)
		require.Equal(t, path, model.Path)
		require.Equal(t, 1.0, scrape(t, m, "solarscan_training_runs_total", metrics.ResultSuccess))
	})

	t.Run("pipeline errors are reported as 500 without replacing the model", func(t *testing.T) {
		serving := &detector.Model{Path: "/models/old.pt"}
		handle := detector.NewHandle(serving)
		m := metrics.New()

		e := newEcho()
		e.GET("/train", handlers.TrainHandler(
			runnerFunc(func(context.Context) (artifacts.ModelTrainerArtifact, error) {
				return artifacts.ModelTrainerArtifact{}, xe.CategorizeWithNote(
					xe.ErrIngestion, "downloading dataset", errors.New("connection refused"),
				)
			}),
			handle, m,
		))

		resp := httptestutil.Serve(e, http.MethodGet, "/train", nil)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		body := httptestutil.DecodeJSON[apierr.ErrorResponse](t, resp)
		require.Contains(t, body.Message.Advice, "connection refused")

		model, ok := handle.Get()
		require.True(t, ok)
		require.Same(t, serving, model)
		require.Equal(t, 1.0, scrape(t, m, "solarscan_training_runs_total", metrics.ResultFailure))
	})

	t.Run("trained model which cannot be loaded is an error", func(t *testing.T) {
		handle := detector.NewHandle(nil)
		e := newEcho()
		e.GET("/train", handlers.TrainHandler(
			runnerFunc(func(context.Context) (artifacts.ModelTrainerArtifact, error) {
				return artifacts.ModelTrainerArtifact{
					TrainedModelFilePath: filepath.Join(t.TempDir(), "missing.pt"),
				}, nil
			}),
			handle, metrics.New(),
		))

		resp := httptestutil.Serve(e, http.MethodGet, "/train", nil)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		_, ok := handle.Get()
		require.False(t, ok)
	})

	t.Run("requests during a training are rejected with 409", func(t *testing.T) {
		path := checkpoint(t)
		started := make(chan struct{})
		release := make(chan struct{})
		m := metrics.New()

		e := newEcho()
		e.GET("/train", handlers.TrainHandler(
			runnerFunc(func(context.Context) (artifacts.ModelTrainerArtifact, error) {
				close(started)
				<-release
				return artifacts.ModelTrainerArtifact{TrainedModelFilePath: path}, nil
			}),
			detector.NewHandle(nil), m,
		))

		first := make(chan int, 1)
		go func() {
			first <- httptestutil.Serve(e, http.MethodGet, "/train", nil).Code
		}()
		<-started

		resp := httptestutil.Serve(e, http.MethodGet, "/train", nil)
		require.Equal(t, http.StatusConflict, resp.Code)
		body := httptestutil.DecodeJSON[apierr.ErrorResponse](t, resp)
		require.Equal(t, "training is already running", body.Message.Reason)

		close(release)
		require.Equal(t, http.StatusOK, <-first)
		require.Equal(t, 1.0, scrape(t, m, "solarscan_training_runs_total", metrics.ResultConflict))
	})

	t.Run("training is not canceled by the client going away", func(t *testing.T) {
		path := checkpoint(t)
		var seen error
		e := newEcho()
		e.GET("/train", handlers.TrainHandler(
			runnerFunc(func(ctx context.Context) (artifacts.ModelTrainerArtifact, error) {
				seen = ctx.Err()
				return artifacts.ModelTrainerArtifact{TrainedModelFilePath: path}, nil
			}),
			detector.NewHandle(nil), metrics.New(),
		))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		resp := httptestutil.Serve(e, http.MethodGet, "/train", nil, httptestutil.WithContext(ctx))
		require.Equal(t, http.StatusOK, resp.Code)
		require.NoError(t, seen)
	})
}

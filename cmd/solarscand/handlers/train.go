package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/solarscan/pkg/api/errors"
	"github.com/opst/solarscan/pkg/artifacts"
	"github.com/opst/solarscan/pkg/detector"
	xe "github.com/opst/solarscan/pkg/errors"
	"github.com/opst/solarscan/pkg/metrics"
)

type PipelineRunner interface {
	Run(ctx context.Context) (artifacts.ModelTrainerArtifact, error)
}

type TrainResponse struct {
	Message   string `json:"message"`
	ModelPath string `json:"model_path"`
}

// TrainHandler runs the training pipeline, and serves the trained model.
//
// Only one training runs at a time. Requests during a training are rejected with 409.
func TrainHandler(runner PipelineRunner, handle *detector.Handle, m *metrics.Metrics) echo.HandlerFunc {
	running := new(sync.Mutex)
	return func(c echo.Context) error {
		if !running.TryLock() {
			m.TrainingFinished(metrics.ResultConflict, 0)
			return apierr.Conflict(
				"training is already running",
				apierr.WithAdvice("wait for the running training to finish, and retry."),
			)
		}
		defer running.Unlock()

		begin := time.Now()
		// training goes on even if the client has gone.
		ctx := context.WithoutCancel(c.Request().Context())

		trained, err := runner.Run(ctx)
		if err != nil {
			m.TrainingFinished(metrics.ResultFailure, time.Since(begin))
			return apierr.InternalServerError(err)
		}

		model, err := detector.Load(trained.TrainedModelFilePath)
		if err != nil {
			m.TrainingFinished(metrics.ResultFailure, time.Since(begin))
			return apierr.InternalServerError(xe.CategorizeWithNote(xe.ErrTraining, "loading trained model", err))
		}
		handle.Swap(model)
		m.ModelLoaded(true)
		m.TrainingFinished(metrics.ResultSuccess, time.Since(begin))

		c.Logger().Infof("model is updated: %s", model.Path)
		return c.JSON(http.StatusOK, TrainResponse{
			Message:   "Training completed successfully",
			ModelPath: model.Path,
		})
	}
}

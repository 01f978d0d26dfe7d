package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/solarscan/pkg/api/errors"
	"github.com/opst/solarscan/pkg/detector"
	"github.com/opst/solarscan/pkg/metrics"
)

type Predictor interface {
	Predict(ctx context.Context, image []byte) (detector.Result, error)
}

type PredictRequest struct {
	// base64 encoded image. data URL ("data:image/png;base64,...") is also accepted.
	Image string `json:"image"`
}

type PredictResponse struct {
	// base64 encoded annotated image
	Image      string `json:"image"`
	Detections int    `json:"detections"`
}

func PredictHandler(predictor Predictor, m *metrics.Metrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := PredictRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			m.Predicted(metrics.ResultRejected, 0)
			return apierr.BadRequest(`request body should be JSON like {"image": "<base64 encoded image>"}`, err)
		}

		payload := req.Image
		if strings.HasPrefix(payload, "data:") {
			_, payload, _ = strings.Cut(payload, ",")
		}
		if payload == "" {
			m.Predicted(metrics.ResultRejected, 0)
			return apierr.BadRequest(`"image" is required`, nil)
		}
		img, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			m.Predicted(metrics.ResultRejected, 0)
			return apierr.BadRequest(`"image" should be base64 encoded`, err)
		}

		result, err := predictor.Predict(c.Request().Context(), img)
		switch {
		case errors.Is(err, detector.ErrNoModel):
			m.Predicted(metrics.ResultRejected, 0)
			return apierr.BadRequest("train the model first via /train", err)
		case errors.Is(err, detector.ErrInvalidImage):
			m.Predicted(metrics.ResultRejected, 0)
			return apierr.BadRequest("image should be JPEG or PNG", err)
		case err != nil:
			m.Predicted(metrics.ResultFailure, 0)
			return apierr.InternalServerError(err)
		}

		m.Predicted(metrics.ResultSuccess, result.Detections)
		return c.JSON(http.StatusOK, PredictResponse{
			Image:      base64.StdEncoding.EncodeToString(result.Image),
			Detections: result.Detections,
		})
	}
}

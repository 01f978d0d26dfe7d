package handlers_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"testing"

	httptestutil "github.com/opst/solarscan/internal/testutils/http"
	apierr "github.com/opst/solarscan/pkg/api/errors"
	"github.com/opst/solarscan/pkg/detector"
	"github.com/opst/solarscan/pkg/metrics"
	"github.com/stretchr/testify/require"

	"github.com/opst/solarscan/cmd/solarscand/handlers"
)

type predictorFunc func(context.Context, []byte) (detector.Result, error)

func (f predictorFunc) Predict(ctx context.Context, img []byte) (detector.Result, error) {
	return f(ctx, img)
}

func TestPredictHandler(t *testing.T) {
	t.Run("it returns the annotated image and the number of detections", func(t *testing.T) {
		var received []byte
		m := metrics.New()
		e := newEcho()
		e.POST("/predict", handlers.PredictHandler(
			predictorFunc(func(_ context.Context, img []byte) (detector.Result, error) {
				received = img
				return detector.Result{Detections: 3, Image: []byte("annotated")}, nil
			}),
			m,
		))

		for name, payload := range map[string]string{
			"plain base64": base64.StdEncoding.EncodeToString([]byte("input image")),
			"data URL":     "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("input image")),
		} {
			t.Run(name, func(t *testing.T) {
				resp := httptestutil.Serve(
					e, http.MethodPost, "/predict",
					strings.NewReader(`{"image": "`+payload+`"}`),
					httptestutil.ContentType("application/json"),
				)
				require.Equal(t, http.StatusOK, resp.Code)
				require.Equal(t, []byte("input image"), received)
				require.Equal(
					t,
					handlers.PredictResponse{
						Image:      base64.StdEncoding.EncodeToString([]byte("annotated")),
						Detections: 3,
					},
					httptestutil.DecodeJSON[handlers.PredictResponse](t, resp),
				)
			})
		}
		require.Equal(t, 2.0, scrape(t, m, "solarscan_predictions_total", metrics.ResultSuccess))
	})

	type When struct {
		body string
		err  error
	}
	type Then struct {
		code   int
		advice string
	}
	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			e := newEcho()
			e.POST("/predict", handlers.PredictHandler(
				predictorFunc(func(context.Context, []byte) (detector.Result, error) {
					return detector.Result{}, when.err
				}),
				metrics.New(),
			))

			resp := httptestutil.Serve(
				e, http.MethodPost, "/predict", strings.NewReader(when.body),
				httptestutil.ContentType("application/json"),
			)
			require.Equal(t, then.code, resp.Code)
			body := httptestutil.DecodeJSON[apierr.ErrorResponse](t, resp)
			require.Contains(t, body.Message.Advice, then.advice)
		}
	}

	valid := `{"image": "` + base64.StdEncoding.EncodeToString([]byte("img")) + `"}`

	t.Run("no model is a bad request", theory(
		When{body: valid, err: detector.ErrNoModel},
		Then{code: http.StatusBadRequest, advice: "train the model first via /train"},
	))
	t.Run("undecodable image is a bad request", theory(
		When{body: valid, err: errors.Join(detector.ErrInvalidImage, errors.New("unknown format"))},
		Then{code: http.StatusBadRequest, advice: "JPEG or PNG"},
	))
	t.Run("non-JSON body is a bad request", theory(
		When{body: "image=abc"},
		Then{code: http.StatusBadRequest, advice: "request body should be JSON"},
	))
	t.Run("missing image is a bad request", theory(
		When{body: `{}`},
		Then{code: http.StatusBadRequest, advice: `"image" is required`},
	))
	t.Run("broken base64 is a bad request", theory(
		When{body: `{"image": "!!not base64!!"}`},
		Then{code: http.StatusBadRequest, advice: "base64"},
	))
	t.Run("failures of the toolkit are internal server errors", theory(
		When{body: valid, err: errors.New("yolo exited with 1")},
		Then{code: http.StatusInternalServerError, advice: "yolo exited with 1"},
	))
}

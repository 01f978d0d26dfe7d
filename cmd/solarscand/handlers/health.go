package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opst/solarscan/pkg/detector"
)

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func HealthHandler(handle *detector.Handle) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, loaded := handle.Get()
		return c.JSON(http.StatusOK, HealthResponse{Status: "ok", ModelLoaded: loaded})
	}
}

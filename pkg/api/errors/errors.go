package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	xe "github.com/opst/solarscan/pkg/errors"
)

type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	Cause  error  `json:"-"`
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Reason *string `json:"reason"`
		Advice *string `json:"advice,omitempty"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "reason"`)
	}
	em.Reason = *f.Reason

	if f.Advice != nil {
		em.Advice = *f.Advice
	}

	return nil
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Conflict(message string, options ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		message,
		options...,
	)
}

// InternalServerError reports err to clients, without source locations.
func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		"unexpected error",
		WithAdvice(xe.Describe(err)),
		WithError(xe.Categorize(xe.ErrServing, err)),
	)
}

// HTTPErrorHandler writes errors as ErrorResponse.
//
// Errors other than *echo.HTTPError are treated as InternalServerError.
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := new(echo.HTTPError)
		if !errors.As(err, &he) {
			he = InternalServerError(err)
		}

		var msg ErrorMessage
		switch m := he.Message.(type) {
		case ErrorMessage:
			msg = m
		case string:
			msg = ErrorMessage{Reason: m}
		default:
			msg = ErrorMessage{Reason: http.StatusText(he.Code)}
		}

		if he.Code >= http.StatusInternalServerError {
			e.Logger.Errorf("%d: %+v", he.Code, err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, ErrorResponse{Message: msg})
		}
		if werr != nil {
			e.Logger.Error(werr)
		}
	}
}

package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"testing"

	xe "github.com/opst/solarscan/pkg/errors"
)

type MyErr struct{}

func (MyErr) Error() string {
	return "error type for test"
}

func createError(message string) error {
	return xe.New(message)
}

func categorizeError(err error) error {
	return xe.Categorize(xe.ErrIngestion, err)
}

func TestNewError(t *testing.T) {
	t.Run("it knows location where it is created.", func(t *testing.T) {
		testee := createError("test error")
		errMessage := testee.Error()

		_, thisFile, _, _ := runtime.Caller(0)

		if !strings.Contains(errMessage, "createError") {
			t.Errorf("it does not know function name: %s", errMessage)
		}

		if !strings.Contains(errMessage, thisFile) {
			t.Errorf("it does not know file (%s): %s", thisFile, errMessage)
		}
	})

	t.Run("it supports errors protocol", func(t *testing.T) {
		rootError := MyErr{}

		err := xe.Wrap(
			fmt.Errorf(
				"%w",
				fmt.Errorf("%w", rootError),
			),
		)

		if !errors.Is(err, rootError) {
			t.Error("it does not support unwrapping.")
		}
	})
}

func TestCategorize(t *testing.T) {
	t.Run("it matches both of the category and the cause", func(t *testing.T) {
		err := categorizeError(fs.ErrNotExist)

		if !errors.Is(err, xe.ErrIngestion) {
			t.Errorf("category is lost: %s", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("cause is lost: %s", err)
		}
		if errors.Is(err, xe.ErrTraining) {
			t.Errorf("unexpected category: %s", err)
		}
		if !strings.Contains(err.Error(), "categorizeError") {
			t.Errorf("it does not know where it is categorized: %s", err)
		}
	})

	t.Run("it keeps the first category", func(t *testing.T) {
		inner := xe.Categorize(xe.ErrConfig, MyErr{})
		err := xe.Categorize(xe.ErrTraining, inner)

		if got := xe.CategoryOf(err); got != xe.ErrConfig {
			t.Errorf("category: want %v, got %v", xe.ErrConfig, got)
		}
		if errors.Is(err, xe.ErrTraining) {
			t.Errorf("category is overwritten: %s", err)
		}
		if !errors.As(err, new(MyErr)) {
			t.Errorf("cause is lost: %s", err)
		}
	})

	t.Run("it returns nil for nil", func(t *testing.T) {
		if err := xe.Categorize(xe.ErrServing, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("CategoryOf returns nil for uncategorized errors", func(t *testing.T) {
		if got := xe.CategoryOf(MyErr{}); got != nil {
			t.Errorf("unexpected category: %v", got)
		}
	})
}

func TestDescribe(t *testing.T) {
	t.Run("it drops locations and keeps notes and categories", func(t *testing.T) {
		err := xe.CategorizeWithNote(
			xe.ErrTraining, "copying checkpoint", xe.Wrap(MyErr{}),
		)

		want := "copying checkpoint: training error: error type for test"
		if got := xe.Describe(err); got != want {
			t.Errorf("want %q, got %q", want, got)
		}
	})
}

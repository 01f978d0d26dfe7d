package errors

import "errors"

// Categories of failures.
//
// An error categorized with Categorize matches its category by errors.Is,
// and its original cause is still reachable by errors.Is / errors.As.
var (
	// dataset download or copy into the feature store failed.
	ErrIngestion = errors.New("ingestion error")

	// status file of validation could not be read or written.
	//
	// Note that a failed validation (missing files) is not an error.
	ErrValidationIO = errors.New("validation i/o error")

	// configuration or dataset manifest is malformed or incomplete.
	ErrConfig = errors.New("config error")

	// training process failed, or it did not leave a checkpoint.
	ErrTraining = errors.New("training error")

	// failure at the HTTP boundary.
	ErrServing = errors.New("serving error")
)

var kinds = []error{ErrIngestion, ErrValidationIO, ErrConfig, ErrTraining, ErrServing}

type categorized struct {
	kind  error
	cause error
}

func (c *categorized) Error() string {
	return c.kind.Error() + ": " + c.cause.Error()
}

func (c *categorized) Unwrap() []error {
	return []error{c.kind, c.cause}
}

// Categorize marks err as a failure of kind, with caller location.
//
// When err has been categorized already, the category is kept as is
// and only caller location is added.
//
// If err is nil, it returns nil.
func Categorize(kind error, err error) error {
	return categorize(kind, "", err)
}

// CategorizeWithNote is Categorize with a note describing what was going on.
func CategorizeWithNote(kind error, note string, err error) error {
	return categorize(kind, note, err)
}

func categorize(kind error, note string, err error) error {
	if err == nil {
		return nil
	}
	if CategoryOf(err) != nil {
		return wrap(note, err, 2)
	}
	return wrap(note, &categorized{kind: kind, cause: err}, 2)
}

// CategoryOf returns the category of err, or nil if err is not categorized.
func CategoryOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

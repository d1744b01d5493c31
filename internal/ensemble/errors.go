package ensemble

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDisease is returned when no bundle exists for the requested category.
var ErrUnknownDisease = errors.New("unknown disease")

// MalformedFeatureError reports a supplied value that cannot be read as a finite number.
type MalformedFeatureError struct {
	Feature string
	Value   any
}

func (e *MalformedFeatureError) Error() string {
	return fmt.Sprintf("feature %q: cannot use %v as a number", e.Feature, e.Value)
}

// MissingFeatureError lists required features absent from a strict or defaults mode request.
type MissingFeatureError struct {
	Disease  Disease
	Features []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("%s: missing required parameters: %s", e.Disease, strings.Join(e.Features, ", "))
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	var malformed *MalformedFeatureError
	var missing *MissingFeatureError
	return errors.Is(err, ErrUnknownDisease) || errors.As(err, &malformed) || errors.As(err, &missing)
}

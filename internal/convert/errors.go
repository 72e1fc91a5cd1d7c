package convert

import "fmt"

// ValidationError rejects an input before the engine opens it: missing file,
// wrong extension, oversized upload. These are caller errors and the only
// error type besides EngineOpenError that Convert surfaces.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.Message)
}

// EngineOpenError reports that the container could not be opened at all.
// Failures past a successful open degrade instead of surfacing.
type EngineOpenError struct {
	Source string
	Err    error
}

func (e *EngineOpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Source, e.Err)
}

func (e *EngineOpenError) Unwrap() error { return e.Err }

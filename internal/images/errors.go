package images

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHookShape matches errors for hook payloads that are not
	// a mapping of image names to tag templates.
	ErrInvalidHookShape = errors.New("invalid hook shape")
	// ErrTagRender matches errors for tags that could not be computed.
	ErrTagRender = errors.New("tag render failed")
	// ErrBackendExecution matches errors of build, pull and push calls.
	ErrBackendExecution = errors.New("backend execution failed")
)

// InvalidHookShapeError is returned when a plugin hook payload has the wrong shape
type InvalidHookShapeError struct {
	Hook   string
	Plugin string
	// Kind describes what was found instead of a mapping of strings
	Kind string
}

func (e *InvalidHookShapeError) Error() string {
	return fmt.Sprintf("invalid hook '%s' from plugin %s: expected mapping of image names to tags, got %s",
		e.Hook, e.Plugin, e.Kind)
}

func (e *InvalidHookShapeError) Is(target error) bool {
	return target == ErrInvalidHookShape
}

// TagRenderError is returned when the tag of an image cannot be computed
type TagRenderError struct {
	Plugin   string
	Image    string
	Template string
	Err      error
}

func (e *TagRenderError) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("failed to render tag of image %s from plugin %s: %v", e.Image, e.Plugin, e.Err)
	}
	return fmt.Sprintf("failed to compute tag of image %s: %v", e.Image, e.Err)
}

func (e *TagRenderError) Unwrap() error {
	return e.Err
}

func (e *TagRenderError) Is(target error) bool {
	return target == ErrTagRender
}

// BackendExecutionError is returned when a build, pull or push fails
type BackendExecutionError struct {
	Op     string
	Image  string
	Plugin string
	Tag    string
	Err    error
}

func (e *BackendExecutionError) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("failed to %s image %s (%s) from plugin %s: %v", e.Op, e.Image, e.Tag, e.Plugin, e.Err)
	}
	return fmt.Sprintf("failed to %s image %s (%s): %v", e.Op, e.Image, e.Tag, e.Err)
}

func (e *BackendExecutionError) Unwrap() error {
	return e.Err
}

func (e *BackendExecutionError) Is(target error) bool {
	return target == ErrBackendExecution
}

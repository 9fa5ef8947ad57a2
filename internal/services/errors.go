package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to tag errors raised by pipeline leaves and backends.
// Stage code wraps failures with one of these so the orchestrator can classify
// a failure without knowing which service produced it.
var (
	ErrExternalTool   = errors.New("external tool error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
	ErrTimeout        = errors.New("timeout")
	ErrTransient      = errors.New("transient failure")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Kind is the coarse classification of a service error.
type Kind string

const (
	KindExternalTool   Kind = "external_tool"
	KindValidation     Kind = "validation"
	KindConfiguration  Kind = "configuration"
	KindNotFound       Kind = "not_found"
	KindTimeout        Kind = "timeout"
	KindTransient      Kind = "transient"
	KindInfrastructure Kind = "infrastructure"
	KindUnknown        Kind = "unknown"
)

// ServiceError carries stage context alongside the marker and underlying cause.
type ServiceError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *ServiceError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Marker.Error(), detail, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Marker.Error(), detail)
}

// Unwrap exposes both the marker (for errors.Is classification) and the cause.
func (e *ServiceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Marker, e.Cause}
	}
	return []error{e.Marker}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &ServiceError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// ErrorDetails is the structured view of a service error used for logging and
// error records.
type ErrorDetails struct {
	Kind      Kind
	Stage     string
	Operation string
	Message   string
	Cause     error
}

// Details extracts structured failure information from an error chain. Errors
// that were not produced by Wrap still yield a usable message and KindUnknown.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	details := ErrorDetails{
		Kind:    classify(err),
		Message: err.Error(),
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		details.Stage = svcErr.Stage
		details.Operation = svcErr.Operation
		details.Cause = svcErr.Cause
		if svcErr.Message != "" {
			details.Message = svcErr.Message
		} else if svcErr.Cause != nil {
			details.Message = svcErr.Cause.Error()
		}
	}
	return details
}

// IsPermanent reports whether an error is classified as non-recoverable by
// retry. The orchestrator retries permanent failures identically unless
// fail-fast classification is explicitly enabled.
func IsPermanent(err error) bool {
	switch classify(err) {
	case KindValidation, KindConfiguration, KindNotFound:
		return true
	default:
		return false
	}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInfrastructure):
		return KindInfrastructure
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

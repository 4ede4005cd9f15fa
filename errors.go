package jstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a value, command, callback, or descriptor of the wrong shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStringValue is returned when a plain string is stored where a JSON object is expected.
	ErrStringValue = fmt.Errorf("%w: expects a JSON object instead of a string", ErrInvalidArgument)

	// ErrCorruptRecord indicates stored text that cannot be decoded as a record.
	ErrCorruptRecord = errors.New("stored record is corrupt")

	// ErrUnsupported is returned when no storage port is available.
	ErrUnsupported = errors.New("storage is not supported")

	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")
)

package ai

import "errors"

var (
	// ErrUnexpectedDimensions indicates the model returned an embedding of
	// a different length than configured.
	ErrUnexpectedDimensions = errors.New("unexpected embedding dimensions")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrMalformedResponse indicates the model output could not be parsed.
	ErrMalformedResponse = errors.New("malformed model response")
)

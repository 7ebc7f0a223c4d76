package domain

import "errors"

var (
	// ErrNotFound indicates the named resource does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrUnsupportedFile indicates a file extension with no registered loader
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrExtraction indicates a file that could not be converted to text
	ErrExtraction = errors.New("document extraction failed")
	// ErrInvalidRequest indicates a malformed client request
	ErrInvalidRequest = errors.New("invalid request")
)

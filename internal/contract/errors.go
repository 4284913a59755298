package contract

import "errors"

// Error categories. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrDataFormat marks a workbook whose structure cannot be ranked.
	ErrDataFormat = errors.New("data format error")

	// ErrValidation marks an input that failed validation, such as an unsupported extension.
	ErrValidation = errors.New("validation error")

	// ErrFileOperation marks a filesystem failure while reading, copying or committing.
	ErrFileOperation = errors.New("file operation error")

	// ErrConfiguration marks an invalid flag or config value.
	ErrConfiguration = errors.New("configuration error")
)

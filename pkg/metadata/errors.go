package metadata

import "errors"

// Registration errors. Callers match them with errors.Is; the returned
// errors wrap these with the offending name.
var (
	ErrAlreadyDefined = errors.New("metadata: already defined")
	ErrUnknownType    = errors.New("metadata: unknown type")
	ErrDuplicateValue = errors.New("metadata: duplicate enum value")
	ErrDuplicateLabel = errors.New("metadata: duplicate enum label")
	ErrInvalidName    = errors.New("metadata: invalid name")
)

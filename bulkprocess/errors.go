package bulkprocess

import (
	"errors"
	"fmt"

	"github.com/carbocation/dicomconvert/dicomrecord"
	"github.com/carbocation/dicomconvert/pixelnorm"
)

var (
	// ErrTransform covers failures after a record decoded and had pixel data:
	// shape problems, encoder failures, unwritable outputs.
	ErrTransform = errors.New("could not transform pixel data")

	ErrInputNotFound = errors.New("input not found")
	ErrNoInputs      = errors.New("no convertible files found")
	ErrInputTooLarge = errors.New("input exceeds the size limit")
)

// Kind classifies a per-file failure.
type Kind int

const (
	KindNone Kind = iota
	InvalidRecord
	NoSampleData
	TransformFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidRecord:
		return "InvalidRecord"
	case NoSampleData:
		return "NoSampleData"
	case TransformFailure:
		return "TransformFailure"
	}

	return ""
}

// FileError is the error attached to a failed Result.
type FileError struct {
	Source string
	Kind   Kind
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a FileError against the sentinel of its kind even
// when the cause has been prefixed without wrapping.
func (e *FileError) Is(target error) bool {
	switch e.Kind {
	case InvalidRecord:
		return target == dicomrecord.ErrInvalidRecord
	case NoSampleData:
		return target == pixelnorm.ErrNoSampleData
	case TransformFailure:
		return target == ErrTransform
	}

	return false
}

// classify maps an error from the pipeline onto a Kind. Anything that is not
// a decode failure or missing pixel data is a transform failure.
func classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, dicomrecord.ErrInvalidRecord):
		return InvalidRecord
	case errors.Is(err, pixelnorm.ErrNoSampleData):
		return NoSampleData
	}

	return TransformFailure
}

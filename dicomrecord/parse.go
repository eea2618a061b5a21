// Package dicomrecord adapts datasets parsed by github.com/suyashkumar/dicom
// into typed records: geometry, rescale and window parameters with explicit
// presence, the photometric interpretation, and the pixel samples as a
// pixelnorm.Grid. It also renders the plain-text metadata report.
package dicomrecord

import (
	"errors"
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/element"
)

// ErrInvalidRecord means the input could not be decoded as DICOM at all.
var ErrInvalidRecord = errors.New("not a valid DICOM file")

// Parse decodes one DICOM stream of n bytes, including its pixel data.
func Parse(r io.Reader, n int64) (*Record, error) {
	p, err := safelyNewParser(r, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	parsedData, err := SafelyDicomParse(p, dicom.ParseOptions{
		DropPixelData: false,
	})
	if parsedData == nil || err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	return FromElements(parsedData.Elements), nil
}

func safelyNewParser(r io.Reader, n int64) (p dicom.Parser, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("dicom parser panicked while reading the header: %v", panicErr)
		}
	}()

	return dicom.NewParser(r, n, nil)
}

// SafelyDicomParse consumes panics emitted by the dicom library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func SafelyDicomParse(p dicom.Parser, opts dicom.ParseOptions) (parsedData *element.DataSet, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			parsedData = nil
			err = fmt.Errorf("dicom parser panicked: %v", panicErr)
		}
	}()

	return p.Parse(opts)
}

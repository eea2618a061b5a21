package dicomrecord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carbocation/dicomconvert/pixelnorm"
	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"
)

// Record is the subset of a DICOM dataset that drives pixel export. Optional
// attributes are nil when the dataset lacks them.
type Record struct {
	// Elements are the top-level elements in file order.
	Elements []*element.Element

	Rows            int
	Cols            int
	BitsAllocated   int
	BitsStored      int
	Signed          bool
	SamplesPerPixel int
	NumberOfFrames  int

	PhotometricInterpretation string
	Modality                  string
	StudyDate                 string
	StudyTime                 string

	// Rescale is set only when both slope and intercept are present.
	Rescale *pixelnorm.Rescale

	// Window is set only when both center and width are present and the width
	// is positive. Multi-valued windows keep their first value.
	Window *pixelnorm.Window

	tags      map[dicomtag.Tag][]interface{}
	pixelData *element.PixelDataInfo
}

// FromElements builds a record from parsed top-level elements.
func FromElements(elems []*element.Element) *Record {
	rec := &Record{
		SamplesPerPixel: 1,
		NumberOfFrames:  1,
		tags:            make(map[dicomtag.Tag][]interface{}),
	}

	for _, elem := range elems {
		if elem == nil {
			continue
		}

		rec.Elements = append(rec.Elements, elem)
		rec.tags[elem.Tag] = elem.Value

		if elem.Tag == dicomtag.PixelData && len(elem.Value) > 0 {
			if data, ok := elem.Value[0].(element.PixelDataInfo); ok {
				rec.pixelData = &data
			}
		}
	}

	rec.Rows, _ = rec.Int(dicomtag.Rows)
	rec.Cols, _ = rec.Int(dicomtag.Columns)
	rec.BitsAllocated, _ = rec.Int(dicomtag.BitsAllocated)
	rec.BitsStored, _ = rec.Int(dicomtag.BitsStored)
	if rec.BitsStored == 0 {
		rec.BitsStored = rec.BitsAllocated
	}
	if rep, ok := rec.Int(dicomtag.PixelRepresentation); ok {
		rec.Signed = rep == 1
	}
	if spp, ok := rec.Int(dicomtag.SamplesPerPixel); ok && spp > 0 {
		rec.SamplesPerPixel = spp
	}
	if nf, ok := rec.Int(tagNumberOfFrames); ok && nf > 0 {
		rec.NumberOfFrames = nf
	}

	rec.PhotometricInterpretation, _ = rec.String(dicomtag.PhotometricInterpretation)
	rec.Modality, _ = rec.String(tagModality)
	rec.StudyDate, _ = rec.String(tagStudyDate)
	rec.StudyTime, _ = rec.String(tagStudyTime)

	slope, hasSlope := rec.Float(dicomtag.RescaleSlope)
	intercept, hasIntercept := rec.Float(dicomtag.RescaleIntercept)
	if hasSlope && hasIntercept {
		rec.Rescale = &pixelnorm.Rescale{Slope: slope, Intercept: intercept}
	}

	center, hasCenter := rec.Float(dicomtag.WindowCenter)
	width, hasWidth := rec.Float(dicomtag.WindowWidth)
	if hasCenter && hasWidth && width > 0 {
		rec.Window = &pixelnorm.Window{Center: center, Width: width}
	}

	return rec
}

// HasPixelData reports whether the dataset carried a pixel data element.
func (r *Record) HasPixelData() bool {
	return r.pixelData != nil
}

// Photometric is the display convention implied by the record.
func (r *Record) Photometric() pixelnorm.Photometric {
	return pixelnorm.ParsePhotometric(r.PhotometricInterpretation)
}

// Lookup returns the raw values of a top-level tag.
func (r *Record) Lookup(tag dicomtag.Tag) ([]interface{}, bool) {
	v, ok := r.tags[tag]
	return v, ok
}

// String returns the first value of tag as trimmed text.
func (r *Record) String(tag dicomtag.Tag) (string, bool) {
	vals, ok := r.tags[tag]
	if !ok || len(vals) == 0 {
		return "", false
	}

	return valueString(vals[0]), true
}

// Float returns the first value of tag as a number.
func (r *Record) Float(tag dicomtag.Tag) (float64, bool) {
	vals, ok := r.tags[tag]
	if !ok || len(vals) == 0 {
		return 0, false
	}

	return toFloat(vals[0])
}

// Int returns the first value of tag as an integer.
func (r *Record) Int(tag dicomtag.Tag) (int, bool) {
	f, ok := r.Float(tag)
	if !ok {
		return 0, false
	}

	return int(f), true
}

// toFloat understands the numeric types the parser emits for US, SS, UL, SL,
// FL and FD, plus DS and IS strings. A backslash-joined string yields its first
// component.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case int16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		s := strings.TrimSpace(strings.SplitN(x, `\`, 2)[0])
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}

	return 0, false
}

func valueString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(strings.TrimSpace(x), "\x00")
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(x))
	case element.PixelDataInfo:
		return fmt.Sprintf("<pixel data: %d frames>", len(x.Frames))
	}

	return fmt.Sprint(v)
}

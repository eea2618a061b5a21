package bulkprocess

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/dicomconvert/export"
	"github.com/gocarina/gocsv"
)

// ManifestRow is one line of manifest.csv.
type ManifestRow struct {
	Source        string `csv:"source"`
	Status        string `csv:"status"`
	ErrorKind     string `csv:"error_kind"`
	Error         string `csv:"error"`
	Modality      string `csv:"modality"`
	StudyDateTime string `csv:"study_datetime"`
	Frames        int    `csv:"frames"`
	Rows          int    `csv:"rows"`
	Cols          int    `csv:"cols"`
	Outputs       string `csv:"outputs"`
	BLAKE2b       string `csv:"blake2b_256"`
}

// NewManifestRow flattens a Result. Outputs are listed by base name, separated
// by semicolons.
func NewManifestRow(r Result) ManifestRow {
	row := ManifestRow{
		Source:        r.Source,
		Status:        "ok",
		Modality:      r.Modality,
		StudyDateTime: StudyDateTime(r.StudyDate, r.StudyTime),
		Frames:        r.Frames,
		Rows:          r.Rows,
		Cols:          r.Cols,
		BLAKE2b:       r.Digest,
	}

	if !r.OK {
		row.Status = "failed"
		row.ErrorKind = r.Kind.String()
		if fe, ok := r.Err.(*FileError); ok {
			row.Error = fe.Err.Error()
		} else if r.Err != nil {
			row.Error = r.Err.Error()
		}
	}

	names := make([]string, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		names = append(names, filepath.Base(out))
	}
	row.Outputs = strings.Join(names, ";")

	return row
}

// StudyDateTime renders a DICOM DA and TM pair as 2006-01-02T15:04:05. It
// falls back to the date alone, and then to the raw text, when dateparse
// cannot make sense of the input.
func StudyDateTime(date, tm string) string {
	date = strings.TrimSpace(date)
	tm = strings.TrimSpace(tm)
	if date == "" {
		return ""
	}

	// Fractional seconds and short times (HHMM) confuse dateparse
	if i := strings.IndexByte(tm, '.'); i >= 0 {
		tm = tm[:i]
	}
	if len(tm) == 4 {
		tm += "00"
	}

	const layout = "2006-01-02T15:04:05"

	if len(tm) == 6 {
		if res, err := dateparse.ParseAny(date + tm); err == nil {
			return res.Format(layout)
		}
	}

	if res, err := dateparse.ParseAny(date); err == nil {
		return res.Format(layout)
	}

	// Old-style dates written as YYYY.MM.DD
	if res, err := time.Parse("2006.01.02", date); err == nil {
		return res.Format(layout)
	}

	return date
}

// WriteManifest writes rows as CSV with a header line.
func WriteManifest(path string, rows []ManifestRow) error {
	return export.WriteFile(path, func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
}

package bulkprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/carbocation/dicomconvert"
	"github.com/carbocation/dicomconvert/dicomrecord"
	"github.com/carbocation/dicomconvert/export"
	"github.com/carbocation/dicomconvert/pixelnorm"
	"github.com/carbocation/pfx"
	"github.com/minio/blake2b-simd"
	"github.com/rs/zerolog"
)

// MaxInputBytes caps how much (decompressed) data is read from one source.
var MaxInputBytes int64 = 4 << 30

// Result describes what happened to one source.
type Result struct {
	Source string
	OK     bool
	Kind   Kind

	// Err is a *FileError when OK is false.
	Err error

	// Outputs are the paths written for this source, in the order written.
	// A failed source may still have some, e.g. its metadata sidecar.
	Outputs []string

	Modality  string
	StudyDate string
	StudyTime string
	Frames    int
	Rows      int
	Cols      int

	// Digest is the hex BLAKE2b-256 of the (decompressed) input bytes.
	Digest string
}

// ConvertOne runs the whole pipeline for one source: decode, metadata
// sidecar, rescale, normalize, invert, then export as a PNG or as a GIF (plus
// MP4 and contact sheet when configured). It never panics on bad input and
// never returns a partial output file; every failure is reported in the
// Result.
func ConvertOne(ctx context.Context, src Source, cfg Config, log zerolog.Logger) Result {
	log = log.With().Str("file", src.Name).Logger()
	res := Result{Source: src.Name}

	if err := ctx.Err(); err != nil {
		return failed(res, err, log)
	}

	rec, sum, err := Decode(ctx, src)
	res.Digest = sum
	if err != nil {
		return failed(res, err, log)
	}

	return convertRecord(res, rec, src.Stem, cfg, log)
}

// Decode reads, decompresses and parses one source. The digest is set
// whenever the bytes could be read, even if they are not DICOM.
func Decode(ctx context.Context, src Source) (*dicomrecord.Record, string, error) {
	raw, err := readSource(ctx, src)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", dicomrecord.ErrInvalidRecord, err)
	}
	sum := digest(raw)

	rec, err := dicomrecord.Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, sum, err
	}

	return rec, sum, nil
}

// convertRecord handles everything after decoding: the sidecar, then the
// pixel pipeline.
func convertRecord(res Result, rec *dicomrecord.Record, stem string, cfg Config, log zerolog.Logger) Result {
	res.Modality = rec.Modality
	res.StudyDate = rec.StudyDate
	res.StudyTime = rec.StudyTime
	res.Rows = rec.Rows
	res.Cols = rec.Cols

	log.Debug().
		Int("rows", rec.Rows).
		Int("cols", rec.Cols).
		Int("bits_allocated", rec.BitsAllocated).
		Int("frames", rec.NumberOfFrames).
		Str("photometric", rec.PhotometricInterpretation).
		Msg("Decoded")

	// A record without pixel data still gets its sidecar before failing.
	grid, gridErr := rec.Grid()

	var stats *dicomrecord.Stats
	if gridErr == nil {
		s := dicomrecord.SampleStats(grid)
		stats = &s
		res.Frames = grid.Frames
		res.Rows = grid.Rows
		res.Cols = grid.Cols
	}

	sidecar := filepath.Join(cfg.OutputDir, stem+".txt")
	if err := export.WriteFile(sidecar, func(w io.Writer) error {
		return dicomrecord.WriteReport(w, rec, stats)
	}); err != nil {
		return failed(res, err, log)
	}
	res.Outputs = append(res.Outputs, sidecar)

	if gridErr != nil {
		return failed(res, gridErr, log)
	}

	written, err := exportPixels(stem, rec, grid, cfg, log)
	res.Outputs = append(res.Outputs, written...)
	if err != nil {
		return failed(res, err, log)
	}

	res.OK = true
	log.Info().Strs("outputs", res.Outputs).Msg("Converted")

	return res
}

func failed(res Result, err error, log zerolog.Logger) Result {
	res.OK = false
	res.Kind = classify(err)
	res.Err = &FileError{Source: res.Source, Kind: res.Kind, Err: err}
	log.Error().Err(err).Str("kind", res.Kind.String()).Msg("Conversion failed")

	return res
}

func readSource(ctx context.Context, src Source) ([]byte, error) {
	if src.Open == nil {
		return nil, pfx.Err(fmt.Errorf("%s cannot be opened", src.Name))
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, _, err := dicomconvert.MaybeDecompress(rc)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > MaxInputBytes {
		return nil, fmt.Errorf("%w of %d bytes", ErrInputTooLarge, MaxInputBytes)
	}

	return raw, nil
}

func digest(raw []byte) string {
	h, err := blake2b.New(&blake2b.Config{Size: 32})
	if err != nil {
		return ""
	}
	if _, err := h.Write(raw); err != nil {
		return ""
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// exportPixels takes a validated grid through rescale, routing, normalization
// and inversion, and writes the images. It returns what it managed to write.
func exportPixels(stem string, rec *dicomrecord.Record, grid pixelnorm.Grid, cfg Config, log zerolog.Logger) ([]string, error) {
	level, err := export.ParseCompression(cfg.PNGCompression)
	if err != nil {
		return nil, err
	}

	grid = pixelnorm.ApplyRescale(grid, rec.Rescale)
	route := pixelnorm.RouteFrames(grid, cfg.FPS)
	photometric := rec.Photometric()
	base := filepath.Join(cfg.OutputDir, stem)

	if !route.IsSequence() {
		precision := grid.Precision(cfg.PreservePrecision)

		var img image.Image
		switch precision {
		case pixelnorm.SixteenBit:
			img = pixelnorm.Invert16(pixelnorm.Normalize16(*route.Single), photometric).Image()
		default:
			img = pixelnorm.Invert8(pixelnorm.Normalize(*route.Single, rec.Window), photometric).Image()
		}

		log.Debug().
			Str("precision", precision.String()).
			Str("photometric", photometric.String()).
			Bool("windowed", rec.Window != nil && precision == pixelnorm.EightBit).
			Msg("Exporting still image")

		out := base + ".png"
		if err := export.PNG(out, img, level); err != nil {
			return nil, err
		}

		return []string{out}, nil
	}

	frames := make([]image.Image, 0, len(route.Sequence))
	for _, plane := range route.Sequence {
		frames = append(frames, pixelnorm.Invert8(pixelnorm.Normalize(plane, rec.Window), photometric).Image())
	}

	log.Debug().
		Int("frames", len(frames)).
		Int("fps", route.FPS).
		Str("photometric", photometric.String()).
		Msg("Exporting sequence")

	written := make([]string, 0, 3)

	gifPath := base + ".gif"
	if err := export.GIF(gifPath, frames, route.FPS); err != nil {
		return written, err
	}
	written = append(written, gifPath)

	if cfg.ExportMP4 {
		mp4Path := base + ".mp4"
		if err := export.MP4(mp4Path, frames, route.FPS); err != nil {
			return written, err
		}
		written = append(written, mp4Path)
	}

	if cfg.ContactSheet {
		sheet, err := export.ContactSheet(frames, 0, cfg.TileSize)
		if err != nil {
			return written, err
		}

		sheetPath := base + "_frames.png"
		if err := export.PNG(sheetPath, sheet, level); err != nil {
			return written, err
		}
		written = append(written, sheetPath)
	}

	return written, nil
}

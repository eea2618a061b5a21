package bulkprocess

import (
	"fmt"
	"strings"

	"github.com/carbocation/dicomconvert/export"
	"github.com/carbocation/dicomconvert/pixelnorm"
)

// DefaultSkipExtensions are never treated as DICOM when they turn up in a
// directory, a zip archive or a gs:// prefix.
var DefaultSkipExtensions = []string{".exe", ".dll", ".inf", ".txt", ".md", ".py", ".DS_Store", ".db"}

// Config controls one conversion run. The zero value is not useful; start
// from DefaultConfig.
type Config struct {
	OutputDir string `yaml:"output_dir"`

	// PreservePrecision allows 16-bit PNGs for single-frame grayscale data
	// stored with more than 8 bits.
	PreservePrecision bool `yaml:"preserve_precision"`

	// ExportMP4 adds an MP4 next to the GIF of every multi-frame input.
	ExportMP4 bool `yaml:"export_mp4"`

	FPS     int `yaml:"fps"`
	Workers int `yaml:"workers"`

	// ContactSheet adds <stem>_frames.png, a grid of every frame, for
	// multi-frame inputs. TileSize bounds each cell.
	ContactSheet bool `yaml:"contact_sheet"`
	TileSize     int  `yaml:"tile_size"`

	// PNGCompression is one of default, none, fast or best.
	PNGCompression string `yaml:"png_compression"`

	// Manifest writes manifest.csv into OutputDir after the run.
	Manifest bool `yaml:"manifest"`

	SkipExtensions []string `yaml:"skip_extensions"`
}

// DefaultConfig mirrors the command line defaults.
func DefaultConfig() Config {
	return Config{
		OutputDir:         "output",
		PreservePrecision: true,
		ExportMP4:         true,
		FPS:               pixelnorm.DefaultFPS,
		Workers:           1,
		ContactSheet:      false,
		TileSize:          128,
		PNGCompression:    "default",
		Manifest:          true,
		SkipExtensions:    append([]string(nil), DefaultSkipExtensions...),
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("an output directory is required")
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if _, err := export.ParseCompression(c.PNGCompression); err != nil {
		return err
	}

	return nil
}

// Precision describes the PNG depth a run may produce.
func (c Config) Precision() string {
	if c.PreservePrecision {
		return "16-bit"
	}
	return "8-bit"
}

// VideoFormat describes what multi-frame inputs become.
func (c Config) VideoFormat() string {
	if c.ExportMP4 {
		return "GIF + MP4"
	}
	return "GIF only"
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/dicomconvert/bulkprocess"
	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

const defaultInput = "dicom_data"

// fileConfig is the layout of the optional -config YAML file.
type fileConfig struct {
	Input              string `yaml:"input"`
	bulkprocess.Config `yaml:",inline"`
}

type options struct {
	Input   string
	Verbose bool
	Config  bulkprocess.Config
}

// parseArgs builds the run options. Precedence, lowest first: built-in
// defaults, the -config file, flags that were set explicitly, and finally the
// positional input path.
func parseArgs(name string, args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [input_path]\n\n", name)
		fmt.Fprintln(stderr, "Converts DICOM files, directories, zip archives and gs:// paths to PNG, GIF and MP4, with a metadata .txt per file.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	defaults := bulkprocess.DefaultConfig()
	flagged := bulkprocess.DefaultConfig()

	var input, configPath, outputDir string
	var eightBit, noMP4, noManifest, verbose bool
	fs.StringVar(&input, "input", defaultInput, "Input DICOM file, directory, .zip archive, or gs:// path. A positional argument takes precedence.")
	fs.StringVar(&outputDir, "out", defaults.OutputDir, "Output directory.")
	fs.StringVar(&outputDir, "o", defaults.OutputDir, "Shorthand for -out.")
	fs.BoolVar(&eightBit, "8bit", false, "Always write 8-bit PNGs instead of preserving 16-bit precision.")
	fs.BoolVar(&noMP4, "no-mp4", false, "Skip MP4 export for multi-frame files (GIF only).")
	fs.IntVar(&flagged.FPS, "fps", defaults.FPS, "Frames per second for GIF and MP4 output.")
	fs.IntVar(&flagged.Workers, "workers", defaults.Workers, "Number of files to convert at once.")
	fs.BoolVar(&flagged.ContactSheet, "contact-sheet", defaults.ContactSheet, "Also write <name>_frames.png, a grid of every frame, for multi-frame files.")
	fs.IntVar(&flagged.TileSize, "tile", defaults.TileSize, "Maximum cell size in pixels for -contact-sheet.")
	fs.StringVar(&flagged.PNGCompression, "png-compression", defaults.PNGCompression, "PNG compression: default, none, fast or best.")
	fs.BoolVar(&noManifest, "no-manifest", false, "Do not write manifest.csv.")
	fs.StringVar(&configPath, "config", "", "Optional YAML file with the same settings (output_dir, fps, workers, ...).")
	fs.BoolVar(&verbose, "verbose", false, "Log debug detail for every file.")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return options{}, fmt.Errorf("expected at most one input path, got %d", fs.NArg())
	}

	fc := fileConfig{Input: defaultInput, Config: defaults}
	if configPath != "" {
		if err := loadConfigFile(configPath, &fc); err != nil {
			return options{}, err
		}
	}

	out := options{Input: fc.Input, Verbose: verbose, Config: fc.Config}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			out.Input = input
		case "out", "o":
			out.Config.OutputDir = outputDir
		case "8bit":
			out.Config.PreservePrecision = !eightBit
		case "no-mp4":
			out.Config.ExportMP4 = !noMP4
		case "fps":
			out.Config.FPS = flagged.FPS
		case "workers":
			out.Config.Workers = flagged.Workers
		case "contact-sheet":
			out.Config.ContactSheet = flagged.ContactSheet
		case "tile":
			out.Config.TileSize = flagged.TileSize
		case "png-compression":
			out.Config.PNGCompression = flagged.PNGCompression
		case "no-manifest":
			out.Config.Manifest = !noManifest
		}
	})

	if fs.NArg() == 1 {
		out.Input = fs.Arg(0)
	}

	if err := out.Config.Validate(); err != nil {
		return options{}, err
	}

	return out, nil
}

func loadConfigFile(path string, fc *fileConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := yaml.Unmarshal(b, fc); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return nil
}

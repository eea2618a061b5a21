// dicomconvert turns DICOM files into PNG images, looping GIFs and MP4 videos,
// and writes a plain-text metadata report next to each one. Single-frame
// images become PNGs (16-bit when the data allows it), multi-frame images
// become GIFs and, unless disabled, MP4s. MP4 output requires that ffmpeg be
// installed. (See https://github.com/unixpickle/ffmpego#installation)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/carbocation/dicomconvert"
	"github.com/carbocation/dicomconvert/bulkprocess"
	"github.com/carbocation/dicomconvert/compileinfo"
	_ "github.com/carbocation/dicomconvert/compileinfoprint"
)

var rule = strings.Repeat("=", 80)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs("dicomconvert", args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	log := newLogger(stderr, opts.Verbose)
	log.Debug().Object("build", compileinfo.Get()).Msg("dicomconvert start")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the Google Storage client, but only if our input indicates
	// that we are pointing to a Google Storage path.
	var client *storage.Client
	if dicomconvert.IsGoogleStoragePath(opts.Input) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Could not create a Google Storage client")
			return 1
		}
		defer client.Close()
	}

	sources, err := bulkprocess.Collect(ctx, opts.Input, opts.Config.SkipExtensions, client)
	switch {
	case errors.Is(err, bulkprocess.ErrInputNotFound):
		fmt.Fprintf(stdout, "Error: %s does not exist\n", opts.Input)
		return 1
	case errors.Is(err, bulkprocess.ErrNoInputs):
		fmt.Fprintln(stdout, "No DICOM files found")
		return 1
	case err != nil:
		log.Error().Err(err).Str("input", opts.Input).Msg("Could not list inputs")
		return 1
	}

	cfg := opts.Config
	outputDir := cfg.OutputDir
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}

	fmt.Fprintf(stdout, "Found %d DICOM files\n", len(sources))
	fmt.Fprintf(stdout, "Output directory: %s\n", outputDir)
	fmt.Fprintf(stdout, "Precision mode: %s\n", cfg.Precision())
	fmt.Fprintf(stdout, "Video format: %s\n", cfg.VideoFormat())
	fmt.Fprintf(stdout, "Frame rate: %d fps\n", cfg.FPS)
	fmt.Fprintln(stdout, rule)

	done := 0
	tally, err := bulkprocess.Run(ctx, sources, cfg, log, func(i int, r bulkprocess.Result) {
		done++
		printResult(stdout, done, len(sources), sources[i], r)
	})
	if err != nil {
		log.Error().Err(err).Msg("Run failed")
		return 1
	}

	fmt.Fprintln(stdout, "\n"+rule)
	fmt.Fprintf(stdout, "Conversion complete: %d/%d files processed successfully\n", tally.Succeeded, tally.Total)
	fmt.Fprintf(stdout, "Output saved to: %s\n", outputDir)

	if ctx.Err() != nil {
		log.Warn().Msg("Interrupted before every file was processed")
		return 130
	}

	return 0
}

// printResult writes the status block for one finished file. With several
// workers, done counts completions rather than input order.
func printResult(w io.Writer, done, total int, src bulkprocess.Source, r bulkprocess.Result) {
	fmt.Fprintf(w, "\n[%d/%d] Processing: %s\n", done, total, displayName(src.Name))

	for _, out := range r.Outputs {
		fmt.Fprintf(w, "  %s saved to: %s\n", describeOutput(out), out)
	}

	if r.OK {
		return
	}

	var fe *bulkprocess.FileError
	if errors.As(r.Err, &fe) {
		switch fe.Kind {
		case bulkprocess.InvalidRecord:
			fmt.Fprintf(w, "  Error: %s is not a valid DICOM file\n", src.Name)
			return
		case bulkprocess.NoSampleData:
			fmt.Fprintf(w, "  Warning: No pixel data found in %s\n", src.Name)
			return
		}
		fmt.Fprintf(w, "  Error processing %s: %v\n", src.Name, fe.Err)
		return
	}

	fmt.Fprintf(w, "  Error processing %s: %v\n", src.Name, r.Err)
}

func displayName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 && !strings.HasPrefix(name[i:], "://") {
		return filepath.Base(name[:i]) + ":" + name[i+1:]
	}
	return filepath.Base(name)
}

func describeOutput(path string) string {
	switch {
	case strings.HasSuffix(path, "_frames.png"):
		return "Contact sheet"
	case strings.HasSuffix(path, ".txt"):
		return "Metadata"
	case strings.HasSuffix(path, ".png"):
		return "Image"
	case strings.HasSuffix(path, ".gif"):
		return "GIF animation"
	case strings.HasSuffix(path, ".mp4"):
		return "MP4 video"
	}
	return "Output"
}

// dicomdump prints the metadata report for every DICOM found at a path (a
// file, a folder, a .zip archive, or a gs:// location) to stdout, without
// writing any images.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/dicomconvert"
	"github.com/carbocation/dicomconvert/bulkprocess"
	_ "github.com/carbocation/dicomconvert/compileinfoprint"
	"github.com/carbocation/dicomconvert/dicomrecord"
)

var BufferSize = 4096

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	out := bufio.NewWriterSize(stdout, BufferSize)
	defer out.Flush()

	logger := log.New(stderr, "", log.LstdFlags)

	fs := flag.NewFlagSet("dicomdump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var path string
	var withStats bool

	fs.StringVar(&path, "path", "", "Path to a single DICOM file, a folder, a .zip archive, or a gs:// location.")
	fs.BoolVar(&withStats, "stats", false, "Also decode pixel data and print summary statistics.")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if path == "" {
		fs.Usage()
		return 1
	}

	ctx := context.Background()

	var client *storage.Client
	if dicomconvert.IsGoogleStoragePath(path) {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			logger.Println(err)
			return 1
		}
		defer client.Close()
	}

	sources, err := bulkprocess.Collect(ctx, path, bulkprocess.DefaultSkipExtensions, client)
	if err != nil {
		logger.Println(err)
		return 1
	}

	for _, src := range sources {
		if err := dumpOne(ctx, out, src, withStats); err != nil {
			logger.Println("Ignoring error and continuing:", err.Error())
		}
	}

	return 0
}

func dumpOne(ctx context.Context, w io.Writer, src bulkprocess.Source, withStats bool) error {
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintln(w, src.Name)
	fmt.Fprintln(w, strings.Repeat("-", 30))

	rec, _, err := bulkprocess.Decode(ctx, src)
	if err != nil {
		return err
	}

	var stats *dicomrecord.Stats
	if withStats {
		if grid, err := rec.Grid(); err == nil {
			s := dicomrecord.SampleStats(grid)
			stats = &s
		}
	}

	return dicomrecord.WriteReport(w, rec, stats)
}

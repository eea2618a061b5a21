package bulkprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/rs/zerolog"
)

// ManifestName is written into the output directory when Config.Manifest is
// set.
const ManifestName = "manifest.csv"

// Tally counts the files that converted cleanly out of all inputs.
type Tally struct {
	Succeeded int
	Total     int
}

func (t Tally) String() string {
	return fmt.Sprintf("%d/%d", t.Succeeded, t.Total)
}

// Run converts every source with up to cfg.Workers files in flight. A failed
// file never stops the batch. onResult, if set, is called from the calling
// goroutine once per finished file with the file's index in sources. Once ctx
// is done no further files are started; files already running finish.
//
// The returned error is about the run itself (configuration, output directory,
// manifest), never about an individual file.
func Run(ctx context.Context, sources []Source, cfg Config, log zerolog.Logger, onResult func(i int, r Result)) (Tally, error) {
	tally := Tally{Total: len(sources)}

	if err := cfg.Validate(); err != nil {
		return tally, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return tally, pfx.Err(err)
	}

	type finished struct {
		i int
		r Result
	}

	results := make([]Result, len(sources))
	attempted := make([]bool, len(sources))
	done := make(chan finished)

	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup

	go func() {
		defer close(done)
		defer wg.Wait()

		for i, src := range sources {
			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}

			if ctx.Err() != nil {
				<-sem
				return
			}

			wg.Add(1)
			go func(i int, src Source) {
				defer wg.Done()
				defer func() { <-sem }()

				done <- finished{i: i, r: ConvertOne(ctx, src, cfg, log)}
			}(i, src)
		}
	}()

	for f := range done {
		results[f.i] = f.r
		attempted[f.i] = true
		if f.r.OK {
			tally.Succeeded++
		}

		if onResult != nil {
			onResult(f.i, f.r)
		}
	}

	if ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Int("not_started", tally.Total-countTrue(attempted)).Msg("Run interrupted")
	}

	if cfg.Manifest {
		rows := make([]ManifestRow, 0, len(results))
		for i, r := range results {
			if !attempted[i] {
				continue
			}
			rows = append(rows, NewManifestRow(r))
		}

		path := filepath.Join(cfg.OutputDir, ManifestName)
		if err := WriteManifest(path, rows); err != nil {
			return tally, err
		}
		log.Debug().Str("path", path).Int("rows", len(rows)).Msg("Wrote manifest")
	}

	return tally, nil
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}

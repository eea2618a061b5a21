package bulkprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestRunTalliesFailuresWithoutStopping(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cfg := testConfig(t)
		cfg.Workers = workers

		sources := make([]Source, 0, 5)
		for i := 0; i < 5; i++ {
			sources = append(sources, memorySource(fmt.Sprintf("junk%d.dcm", i), "not a dicom"))
		}

		seen := make([]int, 0, len(sources))
		tally, err := Run(context.Background(), sources, cfg, zerolog.Nop(), func(i int, r Result) {
			seen = append(seen, i)
			if r.OK || r.Kind != InvalidRecord {
				t.Errorf("workers=%d: %s: unexpected result %+v", workers, r.Source, r)
			}
		})
		if err != nil {
			t.Fatal(err)
		}

		if tally != (Tally{Succeeded: 0, Total: 5}) {
			t.Errorf("workers=%d: tally is %s, expected 0/5", workers, tally)
		}

		sort.Ints(seen)
		if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, seen); diff != "" {
			t.Errorf("workers=%d: unexpected callbacks (-want +got):\n%s", workers, diff)
		}

		b, err := os.ReadFile(filepath.Join(cfg.OutputDir, ManifestName))
		if err != nil {
			t.Fatal(err)
		}

		var rows []ManifestRow
		if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
			t.Fatal(err)
		}
		if len(rows) != 5 {
			t.Fatalf("workers=%d: manifest has %d rows, expected 5", workers, len(rows))
		}
		for k, row := range rows {
			if want := fmt.Sprintf("junk%d.dcm", k); row.Source != want {
				t.Errorf("workers=%d: row %d is %s, expected %s", workers, k, row.Source, want)
			}
			if row.Status != "failed" || row.ErrorKind != "InvalidRecord" {
				t.Errorf("workers=%d: row %d: unexpected status %s/%s", workers, k, row.Status, row.ErrorKind)
			}
		}
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Manifest = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	tally, err := Run(ctx, []Source{memorySource("a.dcm", "x"), memorySource("b.dcm", "y")}, cfg, zerolog.Nop(), func(int, Result) {
		calls++
	})
	if err != nil {
		t.Fatal(err)
	}

	if tally.Total != 2 || tally.Succeeded != 0 {
		t.Errorf("Unexpected tally %s", tally)
	}
	if calls != 0 {
		t.Errorf("Expected no files to start after cancellation, %d did", calls)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.FPS = 0

	if _, err := Run(context.Background(), []Source{memorySource("a.dcm", "x")}, cfg, zerolog.Nop(), nil); err == nil {
		t.Fatal("Expected an error for fps 0")
	}
}

package bulkprocess

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, entries [][2]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func readAll(t *testing.T, src Source) string {
	t.Helper()

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("%s: %v", src.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("%s: %v", src.Name, err)
	}

	return string(b)
}

func TestEligible(t *testing.T) {
	for name, want := range map[string]bool{
		"scan.dcm":            true,
		"IM0001":              true,
		"DICOMDIR":            false,
		"sub/DICOMDIR":        false,
		".hidden.dcm":         false,
		"__MACOSX/._scan.dcm": false,
		"notes.txt":           false,
		"README.md":           false,
		"setup.exe":           false,
		"Thumbs.db":           false,
		"notes.TXT":           true,
		"archive.zip":         true,
	} {
		if got := Eligible(name, DefaultSkipExtensions); got != want {
			t.Errorf("Eligible(%q) = %v, expected %v", name, got, want)
		}
	}
}

func TestCollectDirectory(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "b.dcm"), "b")
	writeFile(t, filepath.Join(dir, "a.dcm"), "a")
	writeFile(t, filepath.Join(dir, "IM0001"), "im")
	writeFile(t, filepath.Join(dir, "DICOMDIR"), "index")
	writeFile(t, filepath.Join(dir, ".hidden"), "h")
	writeFile(t, filepath.Join(dir, "notes.txt"), "n")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub", "c.dcm"), "c")
	writeZip(t, filepath.Join(dir, "bundle.zip"), [][2]string{
		{"x.dcm", "x"},
		{"readme.md", "r"},
		{"__MACOSX/._x.dcm", "junk"},
		{"nested/y.dcm", "y"},
	})

	sources, err := Collect(context.Background(), dir, DefaultSkipExtensions, nil)
	if err != nil {
		t.Fatal(err)
	}

	var names, stems, contents []string
	for _, src := range sources {
		names = append(names, src.Name)
		stems = append(stems, src.Stem)
		contents = append(contents, readAll(t, src))
	}

	zipPath := filepath.Join(dir, "bundle.zip")
	wantNames := []string{
		filepath.Join(dir, "IM0001"),
		filepath.Join(dir, "a.dcm"),
		filepath.Join(dir, "b.dcm"),
		zipPath + ":x.dcm",
		zipPath + ":nested/y.dcm",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("Unexpected sources (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"IM0001", "a", "b", "x", "nested_y"}, stems); diff != "" {
		t.Errorf("Unexpected stems (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"im", "a", "b", "x", "y"}, contents); diff != "" {
		t.Errorf("Unexpected contents (-want +got):\n%s", diff)
	}
}

func TestCollectExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "still tried")

	sources, err := Collect(context.Background(), path, DefaultSkipExtensions, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0].Stem != "notes" {
		t.Fatalf("Expected one source with stem notes, got %+v", sources)
	}
}

func TestCollectErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Collect(context.Background(), filepath.Join(dir, "missing"), DefaultSkipExtensions, nil); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Expected ErrInputNotFound, got %v", err)
	}

	if _, err := Collect(context.Background(), dir, DefaultSkipExtensions, nil); !errors.Is(err, ErrNoInputs) {
		t.Errorf("Expected ErrNoInputs for an empty directory, got %v", err)
	}

	writeFile(t, filepath.Join(dir, "DICOMDIR"), "")
	writeFile(t, filepath.Join(dir, "run.py"), "")
	if _, err := Collect(context.Background(), dir, DefaultSkipExtensions, nil); !errors.Is(err, ErrNoInputs) {
		t.Errorf("Expected ErrNoInputs for a directory of skipped files, got %v", err)
	}
}

func TestCollectBrokenZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	writeFile(t, path, "this is not a zip archive")

	sources, err := Collect(context.Background(), path, DefaultSkipExtensions, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected the archive itself as one source, got %d", len(sources))
	}
	if _, err := sources[0].Open(context.Background()); err == nil {
		t.Fatal("Expected opening a broken archive to fail")
	}
}

func TestCollectZipSameNameInFolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.zip")
	writeZip(t, path, [][2]string{
		{"series1/IM0001", "one"},
		{"series2/IM0001", "two"},
		{"IM0001", "top"},
	})

	sources, err := Collect(context.Background(), path, DefaultSkipExtensions, nil)
	if err != nil {
		t.Fatal(err)
	}

	var stems []string
	for _, src := range sources {
		stems = append(stems, src.Stem)
	}
	if diff := cmp.Diff([]string{"series1_IM0001", "series2_IM0001", "IM0001"}, stems); diff != "" {
		t.Errorf("Unexpected stems (-want +got):\n%s", diff)
	}
}

func TestCollectDisambiguatesStems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scan.dcm"), "plain")
	writeFile(t, filepath.Join(dir, "scan.dcm.gz"), "packed")
	writeFile(t, filepath.Join(dir, "scan_2.dcm"), "taken")

	sources, err := Collect(context.Background(), dir, DefaultSkipExtensions, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]string)
	for _, src := range sources {
		got[filepath.Base(src.Name)] = src.Stem
	}
	want := map[string]string{
		"scan.dcm":    "scan",
		"scan.dcm.gz": "scan_3",
		"scan_2.dcm":  "scan_2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected stems (-want +got):\n%s", diff)
	}
}

func TestZipStem(t *testing.T) {
	for in, want := range map[string]string{
		"IM0001":              "IM0001",
		"x.dcm":               "x",
		"series1/IM0001":      "series1_IM0001",
		"a/b/c.dcm.gz":        "a_b_c",
		`win\folder\scan.dcm`: "win_folder_scan",
	} {
		if got := zipStem(in); got != want {
			t.Errorf("zipStem(%q) = %q, expected %q", in, got, want)
		}
	}
}

package bulkprocess

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/dicomconvert"
	"github.com/carbocation/pfx"
)

// Source is one input to convert.
type Source struct {
	// Name identifies the input in logs and the manifest: a path, a gs:// URL,
	// or archive.zip:entry for zip members.
	Name string

	// Stem names the outputs, e.g. <Stem>.png.
	Stem string

	Open func(ctx context.Context) (io.ReadCloser, error)
}

// Eligible reports whether a file name found inside a directory, archive or
// gs:// prefix should be converted.
func Eligible(name string, skipExtensions []string) bool {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "DICOMDIR" || strings.HasPrefix(base, ".") {
		return false
	}

	for _, ext := range skipExtensions {
		if strings.HasSuffix(base, ext) {
			return false
		}
	}

	return true
}

func isZip(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

// Collect expands input into sources. input may be a file, a .zip archive, a
// directory (not recursed), a gs:// object, or a gs:// "directory" prefix. An
// explicitly named file is always used; files found by listing are filtered
// with Eligible. Zip archives found by listing are expanded.
//
// A client is only needed for gs:// inputs.
func Collect(ctx context.Context, input string, skipExtensions []string, client *storage.Client) ([]Source, error) {
	var sources []Source
	var err error

	if dicomconvert.IsGoogleStoragePath(input) {
		sources, err = collectGoogleStorage(ctx, input, skipExtensions, client)
	} else {
		sources, err = collectLocal(ctx, input, skipExtensions)
	}
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, input)
	}

	return uniqueStems(sources), nil
}

// uniqueStems suffixes repeated stems with _2, _3, ... in input order so that
// no two sources write to the same output files. Stems are compared without
// regard to case.
func uniqueStems(sources []Source) []Source {
	taken := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		taken[strings.ToLower(src.Stem)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		key := strings.ToLower(src.Stem)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			continue
		}

		for n := 2; ; n++ {
			stem := fmt.Sprintf("%s_%d", src.Stem, n)
			candidate := strings.ToLower(stem)
			if _, exists := taken[candidate]; exists {
				continue
			}
			taken[candidate] = struct{}{}
			seen[candidate] = struct{}{}
			sources[i].Stem = stem
			break
		}
	}

	return sources
}

// zipStem keeps an archive member's folders in its stem, so series1/IM0001
// becomes series1_IM0001.
func zipStem(entryName string) string {
	dir := path.Dir(strings.ReplaceAll(entryName, `\`, "/"))
	stem := dicomconvert.TrimExtensions(entryName)
	if dir == "." || dir == "/" {
		return stem
	}

	return strings.ReplaceAll(strings.Trim(dir, "/"), "/", "_") + "_" + stem
}

func collectLocal(ctx context.Context, input string, skipExtensions []string) ([]Source, error) {
	info, err := os.Stat(input)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	if !info.IsDir() {
		if isZip(input) {
			return zipSources(ctx, input, skipExtensions, nil), nil
		}
		return []Source{objectSource(input, nil)}, nil
	}

	// ReadDir sorts by name
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Source, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !Eligible(entry.Name(), skipExtensions) {
			continue
		}

		p := filepath.Join(input, entry.Name())
		if isZip(p) {
			out = append(out, zipSources(ctx, p, skipExtensions, nil)...)
			continue
		}

		out = append(out, objectSource(p, nil))
	}

	return out, nil
}

func collectGoogleStorage(ctx context.Context, input string, skipExtensions []string, client *storage.Client) ([]Source, error) {
	listed, err := dicomconvert.ListFromGoogleStorage(ctx, input, client)
	if err != nil {
		return nil, err
	}

	for _, obj := range listed {
		if obj != input {
			continue
		}

		if isZip(input) {
			return zipSources(ctx, input, skipExtensions, client), nil
		}
		return []Source{objectSource(input, client)}, nil
	}

	// Treat the input as a directory and take its direct children only
	dirPrefix := strings.TrimSuffix(input, "/") + "/"
	found := false
	out := make([]Source, 0, len(listed))
	for _, obj := range listed {
		rest := strings.TrimPrefix(obj, dirPrefix)
		if rest == obj {
			continue
		}
		found = true

		if strings.Contains(rest, "/") || !Eligible(rest, skipExtensions) {
			continue
		}

		if isZip(obj) {
			out = append(out, zipSources(ctx, obj, skipExtensions, client)...)
			continue
		}

		out = append(out, objectSource(obj, client))
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
	}

	return out, nil
}

// objectSource reads a local file or gs:// object.
func objectSource(name string, client *storage.Client) Source {
	return Source{
		Name: name,
		Stem: dicomconvert.TrimExtensions(name),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			f, _, err := dicomconvert.MaybeOpenFromGoogleStorage(ctx, name, client)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// zipSources lists the eligible members of an archive. An archive that cannot
// be read becomes a single source whose Open fails, so that it is counted and
// reported like any other bad input.
func zipSources(ctx context.Context, archive string, skipExtensions []string, client *storage.Client) []Source {
	f, nbytes, err := dicomconvert.MaybeOpenFromGoogleStorage(ctx, archive, client)
	if err != nil {
		return []Source{brokenSource(archive, err)}
	}
	defer f.Close()

	rc, err := zip.NewReader(f, nbytes)
	if err != nil {
		return []Source{brokenSource(archive, pfx.Err(err))}
	}

	out := make([]Source, 0, len(rc.File))
	for _, v := range rc.File {
		if v.FileInfo().IsDir() || !Eligible(v.Name, skipExtensions) {
			continue
		}

		entryName := v.Name
		out = append(out, Source{
			Name: archive + ":" + entryName,
			Stem: zipStem(entryName),
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return openZipEntry(ctx, archive, entryName, client)
			},
		})
	}

	return out
}

func brokenSource(name string, err error) Source {
	return Source{
		Name: name,
		Stem: dicomconvert.TrimExtensions(name),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return nil, err
		},
	}
}

// zipEntryReader closes both the member and the archive it came from.
type zipEntryReader struct {
	io.ReadCloser
	archive io.Closer
}

func (z *zipEntryReader) Close() error {
	err := z.ReadCloser.Close()
	if archiveErr := z.archive.Close(); err == nil {
		err = archiveErr
	}
	return err
}

func openZipEntry(ctx context.Context, archive, entryName string, client *storage.Client) (io.ReadCloser, error) {
	f, nbytes, err := dicomconvert.MaybeOpenFromGoogleStorage(ctx, archive, client)
	if err != nil {
		return nil, err
	}

	rc, err := zip.NewReader(f, nbytes)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	for _, v := range rc.File {
		if v.Name != entryName {
			continue
		}

		entry, err := v.Open()
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}

		return &zipEntryReader{ReadCloser: entry, archive: f}, nil
	}

	f.Close()
	return nil, pfx.Err(fmt.Errorf("did not find %s in %s", entryName, archive))
}

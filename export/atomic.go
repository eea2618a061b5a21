// Package export writes normalized frames to disk as PNG, animated GIF, MP4
// and contact sheet files. Every file is written beside its destination and
// renamed into place only once it is complete.
package export

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// WriteFile streams the output of write into path. If write fails, nothing is
// left at path.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return pfx.Err(err)
	}
	if err = bw.Flush(); err != nil {
		return pfx.Err(err)
	}
	if err = tmp.Close(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(tmp.Name(), path))
}

// withTempPath is WriteFile for encoders that insist on opening the file
// themselves. The encoder writes into a fresh private directory beside path,
// so concurrent writers never share a temp file, and the name keeps the
// destination's extension.
func withTempPath(path string, write func(tmpPath string) error) (err error) {
	tmpDir, err := os.MkdirTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pfx.Err(err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(path))
	if err = write(tmpPath); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(tmpPath, path))
}

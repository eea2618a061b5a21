// Package dicomconvert holds the storage helpers shared by the converter's
// packages: opening inputs that may live on local disk or in Google Storage,
// and listing gs:// prefixes.
package dicomconvert

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gsPrefix = "gs://"

// ReaderAtCloser is what the zip reader and the dicom parser need from an
// input.
type ReaderAtCloser interface {
	io.Reader
	io.ReaderAt
	io.Closer
}

// IsGoogleStoragePath reports whether path is a gs:// URL.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, gsPrefix)
}

// SplitGoogleStoragePath separates gs://bucket/some/object into its bucket
// and object name. The object name may be empty.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	if !IsGoogleStoragePath(path) {
		return "", "", fmt.Errorf("%s is not a gs:// path", path)
	}

	pathParts := strings.SplitN(strings.TrimPrefix(path, gsPrefix), "/", 2)
	if pathParts[0] == "" {
		return "", "", fmt.Errorf("%s has no bucket", path)
	}
	if len(pathParts) == 1 {
		return pathParts[0], "", nil
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it begins with
// gs://, and from local disk otherwise. It also returns the size in bytes.
func MaybeOpenFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (ReaderAtCloser, int64, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: no Google Storage client", path))
		}

		bucketName, pathName, err := SplitGoogleStoragePath(path)
		if err != nil {
			return nil, 0, pfx.Err(err)
		}
		if pathName == "" {
			return nil, 0, pfx.Err(fmt.Errorf("%s names a bucket, not an object", path))
		}

		wrappedHandle := &GSReaderAtCloser{
			ObjectHandle: client.Bucket(bucketName).Object(pathName),
			Context:      ctx,
		}

		// Make a hard call to get the filesize
		attrs, err := wrappedHandle.ObjectHandle.Attrs(wrappedHandle.Context)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, pfx.Err(err)
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, pfx.Err(err)
	}

	return f, fstat.Size(), nil
}

// GSReaderAtCloser decorates a Google Storage object handle with Read, ReadAt
// and Close.
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
	Reader  *storage.Reader
}

func (o *GSReaderAtCloser) Read(p []byte) (n int, err error) {
	if o.Reader == nil {
		o.Reader, err = o.NewReader(o.Context)
		if err != nil {
			return 0, err
		}
	}

	return o.Reader.Read(p)
}

// ReadAt satisfies io.ReaderAt with one ranged request per call.
func (o *GSReaderAtCloser) ReadAt(p []byte, offset int64) (n int, err error) {
	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err = io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

// Close releases the sequential reader, if one was opened.
func (o *GSReaderAtCloser) Close() error {
	if o.Reader == nil {
		return nil
	}

	err := o.Reader.Close()
	o.Reader = nil
	return err
}

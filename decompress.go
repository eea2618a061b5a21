package dicomconvert

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"path"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

// Compression identifies how a single input stream is wrapped.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZip
	CompressionXZ
	CompressionBZip2
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZip:
		return "zip"
	case CompressionXZ:
		return "xz"
	case CompressionBZip2:
		return "bzip2"
	}

	return "none"
}

var byteCodeSigs = map[Compression][]byte{
	CompressionGzip:  {0x1f, 0x8b, 0x08},
	CompressionZip:   {0x50, 0x4b, 0x03, 0x04},
	CompressionXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	CompressionBZip2: {0x42, 0x5a, 0x68},
}

// CompressedExtensions are the suffixes that MaybeDecompress unwraps and that
// TrimExtensions strips before the DICOM extension.
var CompressedExtensions = []string{".gz", ".xz", ".bz2"}

// DetectCompression matches the leading bytes of a stream against known
// signatures. DICOM files never match: they start with a 128 byte preamble or
// a little-endian group number.
func DetectCompression(head []byte) Compression {
Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return CompressionNone
}

// MaybeDecompress peeks at r and, if it is a gzip, xz, bzip2 or zip stream,
// returns a reader over the decompressed content. For a zip stream that is the
// first regular entry. Uncompressed input comes back unchanged.
func MaybeDecompress(r io.Reader) (io.Reader, Compression, error) {
	br := bufio.NewReader(r)

	// Short inputs are not an error here; the DICOM parser will reject them.
	head, _ := br.Peek(6)

	dt := DetectCompression(head)
	switch dt {
	case CompressionGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return gz, dt, nil
	case CompressionZip:
		zr := zipstream.NewReader(br)
		for {
			hdr, err := zr.Next()
			if err != nil {
				return nil, dt, pfx.Err(err)
			}
			if !strings.HasSuffix(hdr.Name, "/") {
				break
			}
		}
		return zr, dt, nil
	case CompressionBZip2:
		return bzip2.NewReader(br), dt, nil
	case CompressionXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return reader, dt, nil
	}

	return br, CompressionNone, nil
}

// TrimExtensions returns the base name of name without its final extension.
// A compression suffix is removed first, so scan.dcm.gz becomes scan.
func TrimExtensions(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))

	for _, ext := range CompressedExtensions {
		if strings.HasSuffix(strings.ToLower(base), ext) && len(base) > len(ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}

	if ext := path.Ext(base); ext != "" && len(ext) < len(base) {
		base = base[:len(base)-len(ext)]
	}

	return base
}

package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// ParseCompression maps default, none, fast and best onto png compression
// levels.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}

	return png.DefaultCompression, fmt.Errorf("unknown PNG compression %q (expected default, none, fast or best)", name)
}

// PNG writes img to path. The PNG bit depth follows the image type, so an
// *image.Gray16 yields a 16-bit grayscale file.
func PNG(path string, img image.Image, level png.CompressionLevel) error {
	return WriteFile(path, func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	})
}

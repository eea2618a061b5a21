package export

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"runtime"

	"github.com/carbocation/go-quantize/quantize"
	"github.com/carbocation/pfx"
	"golang.org/x/image/draw"
)

type orderedPaletted struct {
	key   int
	image *image.Paletted
}

// GrayPalette has one entry per 8-bit gray level, so index == intensity.
var GrayPalette = func() color.Palette {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}
	return pal
}()

// GIFDelay converts a frame rate into a per-frame delay in hundredths of a
// second, never less than 1.
func GIFDelay(fps int) int {
	if fps <= 0 {
		return 10
	}
	if d := 100 / fps; d > 1 {
		return d
	}
	return 1
}

// MakeOneGIF creates a looping animated gif from an ordered slice of
// same-sized frames. Grayscale frames map losslessly onto GrayPalette. For
// color frames, the quantizer is built from *all* input images, and the
// quantized palette is shared across all of the output frames.
func MakeOneGIF(sortedImages []image.Image, delay int) (*gif.GIF, error) {
	if len(sortedImages) == 0 {
		return nil, pfx.Err(fmt.Errorf("no frames to animate"))
	}

	bounds := sortedImages[0].Bounds()
	allGray := true
	for k, img := range sortedImages {
		if img.Bounds() != bounds {
			return nil, pfx.Err(fmt.Errorf("frame %d has bounds %v, frame 0 has %v", k, img.Bounds(), bounds))
		}
		if _, ok := img.(*image.Gray); !ok {
			allGray = false
		}
	}

	pal := GrayPalette
	if !allGray {
		quantizer := quantize.MedianCutQuantizer{
			Aggregation:    quantize.Mean,
			Weighting:      nil,
			AddTransparent: false,
		}
		pal = quantizer.QuantizeMultiple(make([]color.Color, 0, 256), sortedImages)
	}

	// Convert each image to a frame in our animated gif
	palettedImages := make(chan orderedPaletted)
	semaphore := make(chan struct{}, runtime.NumCPU())

	// This is surprisingly slow and so is worth parallelizing.
	go func() {
		for k, img := range sortedImages {
			semaphore <- struct{}{}

			go func(k int, img image.Image) {
				defer func() { <-semaphore }()

				palettedImages <- orderedPaletted{
					key:   k,
					image: toPaletted(img, pal),
				}
			}(k, img)
		}
	}()

	// Save the outputs - in order
	sortedPalettedImages := make([]*image.Paletted, len(sortedImages))
	for range sortedImages {
		palettedImage := <-palettedImages
		sortedPalettedImages[palettedImage.key] = palettedImage.image
	}

	outGif := &gif.GIF{LoopCount: 0}
	for _, palettedImage := range sortedPalettedImages {
		outGif.Image = append(outGif.Image, palettedImage)
		outGif.Delay = append(outGif.Delay, delay)
		outGif.Disposal = append(outGif.Disposal, gif.DisposalBackground)
	}

	return outGif, nil
}

func toPaletted(img image.Image, pal color.Palette) *image.Paletted {
	palettedImage := image.NewPaletted(img.Bounds(), pal)

	if g, ok := img.(*image.Gray); ok && len(pal) == 256 && g.Stride == palettedImage.Stride {
		if _, isGray := pal[0].(color.Gray); isGray {
			copy(palettedImage.Pix, g.Pix)
			return palettedImage
		}
	}

	draw.Draw(palettedImage, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return palettedImage
}

// GIF writes frames to path as a looping animation at fps.
func GIF(path string, frames []image.Image, fps int) error {
	outGif, err := MakeOneGIF(frames, GIFDelay(fps))
	if err != nil {
		return err
	}

	return WriteFile(path, func(w io.Writer) error {
		return gif.EncodeAll(w, outGif)
	})
}

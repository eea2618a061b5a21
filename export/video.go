package export

import (
	"fmt"
	"image"

	"github.com/carbocation/pfx"
	"github.com/unixpickle/ffmpego"
)

// MP4 encodes frames at fps through ffmpeg. ffmpeg must be on the PATH.
func MP4(path string, frames []image.Image, fps int) error {
	if len(frames) == 0 {
		return pfx.Err(fmt.Errorf("no frames to encode"))
	}

	return withTempPath(path, func(tmpPath string) error {
		return makeOneMPEG(frames, tmpPath, float64(fps))
	})
}

func makeOneMPEG(sortedImages []image.Image, outName string, fps float64) (err error) {
	w := sortedImages[0].Bounds().Dx()
	h := sortedImages[0].Bounds().Dy()

	vw, err := ffmpego.NewVideoWriter(outName, w, h, fps)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if closeErr := vw.Close(); closeErr != nil && err == nil {
			err = pfx.Err(closeErr)
		}
	}()

	for k, v := range sortedImages {
		if err := vw.WriteFrame(v); err != nil {
			return pfx.Err(fmt.Errorf("frame %d: %w", k, err))
		}
	}

	return nil
}

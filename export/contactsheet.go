package export

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// ContactSheet lays every frame out on a black grid, left to right and top to
// bottom. Frames are fitted into tile x tile cells (never upscaled); tile <= 0
// keeps their native size. ncols <= 0 picks a roughly square grid. A thin gray
// border separates cells.
func ContactSheet(frames []image.Image, ncols, tile int) (*image.RGBA, error) {
	if len(frames) == 0 {
		return nil, pfx.Err(fmt.Errorf("no frames for a contact sheet"))
	}

	if ncols <= 0 {
		ncols = int(math.Ceil(math.Sqrt(float64(len(frames)))))
	}
	nrows := len(frames) / ncols
	if len(frames)%ncols != 0 {
		nrows++
	}

	panes := make([]image.Image, 0, len(frames))
	maxWidth, maxHeight := 0, 0
	for k, frame := range frames {
		if frame.Bounds().Dx() == 0 || frame.Bounds().Dy() == 0 {
			return nil, pfx.Err(fmt.Errorf("frame %d has a height or width of 0", k))
		}

		pane := frame
		if tile > 0 && (frame.Bounds().Dx() > tile || frame.Bounds().Dy() > tile) {
			pane = imaging.Fit(frame, tile, tile, imaging.Lanczos)
		}
		panes = append(panes, pane)

		if x := pane.Bounds().Dx(); x > maxWidth {
			maxWidth = x
		}
		if y := pane.Bounds().Dy(); y > maxHeight {
			maxHeight = y
		}
	}

	sheet := image.NewRGBA(image.Rect(0, 0, ncols*maxWidth, nrows*maxHeight))
	draw.Draw(sheet, sheet.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	borderColor := &image.Uniform{color.RGBA{R: 128, G: 128, B: 128, A: 255}}

	for k, pane := range panes {
		row, col := k/ncols, k%ncols
		startX := col * maxWidth
		startY := row * maxHeight

		drawRect := image.Rect(startX, startY, startX+pane.Bounds().Dx(), startY+pane.Bounds().Dy())
		draw.Draw(sheet, drawRect, pane, pane.Bounds().Min, draw.Src)

		// Right and bottom edges of the cell
		cell := image.Rect(startX, startY, startX+maxWidth, startY+maxHeight)
		right := cell
		right.Min.X = right.Max.X - 1
		draw.Draw(sheet, right, borderColor, image.Point{}, draw.Src)

		bottom := cell
		bottom.Min.Y = bottom.Max.Y - 1
		draw.Draw(sheet, bottom, borderColor, image.Point{}, draw.Src)
	}

	return sheet, nil
}

package media

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"

	"github.com/disintegration/imaging"
)

// Short-form video frame geometry.
const (
	frameWidth  = 960
	frameHeight = 540
	jpegQuality = 90
)

// Letterbox fits the source image into a 960x540 black frame and writes the
// result as JPEG. The aspect ratio is preserved; the slack is padded.
func Letterbox(srcPath, destPath string) error {
	src, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image %s: %w", srcPath, err)
	}

	fitted := imaging.Fit(src, frameWidth, frameHeight, imaging.Lanczos)
	fitted = imaging.AdjustContrast(fitted, 5)
	fitted = imaging.Sharpen(fitted, 0.5)

	canvas := imaging.New(frameWidth, frameHeight, color.Black)
	canvas = imaging.PasteCenter(canvas, fitted)

	if err := imaging.Save(canvas, destPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save letterboxed image %s: %w", destPath, err)
	}
	return nil
}

// IsAnimatedGIF reports whether the file is a GIF with more than one frame.
// Single-frame GIFs are treated as still images downstream.
func IsAnimatedGIF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open gif %s: %w", path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return false, fmt.Errorf("decode gif %s: %w", path, err)
	}
	return len(g.Image) > 1, nil
}

// Dimensions returns the pixel size of an image file without decoding the
// full pixel data.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

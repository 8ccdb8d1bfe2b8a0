// Package export reads source photographs and writes composed creatives.
//
// The output format follows the file extension: ".png" is lossless, ".jpg"
// and ".jpeg" are written at quality 95.
package export

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/xob0t/creativekit/pkg/colors"
)

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 95

// Format resolves an extension such as ".png" or "jpg".
func Format(ext string) (imaging.Format, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "png":
		return imaging.PNG, nil
	case "jpg", "jpeg":
		return imaging.JPEG, nil
	default:
		return 0, fmt.Errorf("unsupported format %q: use .png or .jpg", ext)
	}
}

// ContentType is the MIME type for an extension.
func ContentType(ext string) string {
	f, err := Format(ext)
	if err != nil {
		return "application/octet-stream"
	}
	if f == imaging.JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Save writes img to path, creating parent directories.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, filepath.Ext(path), img); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes img to w in the format named by ext.
func Encode(w io.Writer, ext string, img image.Image) error {
	format, err := Format(ext)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// Bytes encodes img in memory.
func Bytes(ext string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, ext, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Open decodes an image file, applying its EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image from r, applying its EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// NewSolidImage creates a uniform image of colour c.
func NewSolidImage(w, h int, c colors.RGB) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Placeholder creates a stand-in product shot: a vertical blend between two
// colours, or between random colours when either is nil. It is used when a
// brief names no image for a product.
func Placeholder(w, h int, top, bottom *colors.RGB) (*image.NRGBA, error) {
	pick := func(c *colors.RGB) (colors.RGB, error) {
		if c != nil {
			return *c, nil
		}
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return colors.RGB{}, fmt.Errorf("random color: %w", err)
		}
		return colors.RGB{R: buf[0], G: buf[1], B: buf[2]}, nil
	}
	a, err := pick(top)
	if err != nil {
		return nil, err
	}
	b, err := pick(bottom)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c := color.NRGBA{
			R: lerp(a.R, b.R, t),
			G: lerp(a.G, b.G, t),
			B: lerp(a.B, b.B, t),
			A: 255,
		}
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = c.R, c.G, c.B, c.A
		}
	}
	return img, nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

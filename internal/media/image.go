package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"github.com/saravenpi/e63/internal/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultPreviewWidth is the preview width in terminal columns.
const DefaultPreviewWidth = 24

var ErrEmpty = errors.New("empty file")

// Decode turns raw file bytes into a displayable image reference: a base64
// data URL plus its MIME type, dimensions and a terminal preview.
func Decode(data []byte, name string, previewWidth int) (models.ImageRef, error) {
	if len(data) == 0 {
		return models.ImageRef{}, ErrEmpty
	}

	mt := mimetype.Detect(data)
	mime := mt.String()
	if !strings.HasPrefix(mime, "image/") {
		return models.ImageRef{}, fmt.Errorf("%s is not an image (%s)", name, mime)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	bounds := img.Bounds()
	return models.ImageRef{
		URL:     "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIME:    mime,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Size:    len(data),
		Preview: Preview(img, previewWidth),
	}, nil
}

// Preview renders img as rows of upper half blocks, two pixel rows per
// terminal line, at most cols columns wide.
func Preview(img image.Image, cols int) string {
	if cols <= 0 {
		cols = DefaultPreviewWidth
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	if b.Dx() > cols || b.Dy() > cols {
		img = resize.Thumbnail(uint(cols), uint(cols), img, resize.Bilinear)
		b = img.Bounds()
	}

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteString("\n")
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(hex(img, x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(lipgloss.Color(hex(img, x, y+1)))
			}
			sb.WriteString(style.Render("▀"))
		}
	}
	return sb.String()
}

func hex(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

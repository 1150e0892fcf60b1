package cleanblog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// errInvalidImage marks uploads that cannot be used as a header image.
var errInvalidImage = errors.New("invalid image")

// processImage decodes src, shrinks it to maxImageWidth if wider, and
// re-encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errInvalidImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// uploadName builds a unique file name from the post title.
func uploadName(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "header"
	}
	return base + "-" + uuid.NewString()[:8] + ".jpg"
}

// headerImage is a processed upload that is not yet on disk.
type headerImage struct {
	name string
	data []byte
}

// URL is where the image is served once saved.
func (img *headerImage) URL() string {
	return "/public/" + uploadsSubdir + "/" + img.name
}

// readUploadedImage processes the optional "image" upload. It returns nil
// when no file was sent.
func (a *App) readUploadedImage(c echo.Context, title string) (*headerImage, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	if file.Size > maxUploadSize {
		return nil, fmt.Errorf("%w: file too large (max 10MB)", errInvalidImage)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := processImage(src)
	if err != nil {
		return nil, err
	}
	return &headerImage{name: uploadName(title), data: data}, nil
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.Config.StaticDir, uploadsSubdir)
}

// saveImage writes img under the static dir. A nil img is a no-op.
func (a *App) saveImage(c echo.Context, img *headerImage) error {
	if img == nil {
		return nil
	}
	dir := a.uploadsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, img.name), img.data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	c.Logger().Infof("stored header image %s (%d bytes)", img.name, len(img.data))
	return nil
}

// discardImage removes a saved image whose post could not be written.
func (a *App) discardImage(c echo.Context, img *headerImage) {
	if err := os.Remove(filepath.Join(a.uploadsDir(), img.name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.Logger().Warnf("remove header image %s: %v", img.name, err)
	}
}

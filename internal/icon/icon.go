// Package icon resolves body icon references into images.
//
// Supported references:
//
//	glyph:<text>            text badge rasterized with a bitmap font
//	data:image/...;base64,  inline image
//	file:<path>, <path>     PNG, JPEG, GIF, BMP or WebP on disk
//
// Network schemes are rejected; icons are never fetched remotely.
package icon

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrIconLoadFailed is wrapped by every load failure.
var ErrIconLoadFailed = errors.New("icon load failed")

// Source loads an icon image for a reference. Implementations must be safe
// for concurrent use.
type Source interface {
	Load(ctx context.Context, ref string, tint color.Color) (*image.RGBA, error)
}

// Loader is the default Source.
type Loader struct {
	// BaseDir resolves relative file references.
	BaseDir string
	// MaxBytes caps file and data payloads.
	MaxBytes int64
	// MaxPixels caps decoded image area.
	MaxPixels int
}

// NewLoader creates a loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir, MaxBytes: 4 << 20, MaxPixels: 1 << 20}
}

// Load resolves ref. Glyph badges are drawn in tint; image icons keep their
// own colours.
func (l *Loader) Load(ctx context.Context, ref string, tint color.Color) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(ref, err)
	}

	scheme, rest := splitScheme(ref)
	switch scheme {
	case "glyph":
		if rest == "" {
			return nil, fail(ref, errors.New("empty glyph text"))
		}
		return Glyph(rest, tint), nil
	case "data":
		data, err := decodeDataURI(rest)
		if err != nil {
			return nil, fail(ref, err)
		}
		return l.decode(ref, data)
	case "file", "":
		data, err := l.readFile(rest)
		if err != nil {
			return nil, fail(ref, err)
		}
		return l.decode(ref, data)
	default:
		return nil, fail(ref, fmt.Errorf("unsupported scheme %q", scheme))
	}
}

func (l *Loader) readFile(path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "//")
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		path = filepath.Join(l.BaseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if l.MaxBytes > 0 && info.Size() > l.MaxBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit %d", path, info.Size(), l.MaxBytes)
	}
	return os.ReadFile(path)
}

func (l *Loader) decode(ref string, data []byte) (*image.RGBA, error) {
	if l.MaxBytes > 0 && int64(len(data)) > l.MaxBytes {
		return nil, fail(ref, fmt.Errorf("payload of %d bytes exceeds limit", len(data)))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fail(ref, fmt.Errorf("decode: %w", err))
	}
	if l.MaxPixels > 0 && cfg.Width*cfg.Height > l.MaxPixels {
		return nil, fail(ref, fmt.Errorf("%dx%d image exceeds %d pixels", cfg.Width, cfg.Height, l.MaxPixels))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fail(ref, fmt.Errorf("decode: %w", err))
	}
	return toRGBA(img), nil
}

func fail(ref string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIconLoadFailed, ref, err)
}

// splitScheme separates "scheme:rest". Bare paths (including Windows drive
// letters) have no scheme.
func splitScheme(ref string) (string, string) {
	i := strings.Index(ref, ":")
	if i <= 1 {
		return "", ref
	}
	scheme := strings.ToLower(ref[:i])
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return "", ref
		}
	}
	return scheme, ref[i+1:]
}

// decodeDataURI handles "image/png;base64,<payload>".
func decodeDataURI(rest string) ([]byte, error) {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data URI must be base64 encoded")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// Glyph rasterizes text as a badge on a transparent background.
func Glyph(text string, tint color.Color) *image.RGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 2
	h := face.Metrics().Height.Ceil() + 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(tint),
		Face: face,
		Dot:  fixed.P(1, 1+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}

// Fit scales img to fit within maxW×maxH, keeping its aspect ratio.
func Fit(img image.Image, maxW, maxH int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || maxW <= 0 || maxH <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	scale := min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

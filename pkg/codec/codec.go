// Package codec is the raster boundary of the engine: it turns
// user-supplied image bytes into pixel buffers and encodes processed
// buffers back to disk in transparency-preserving formats.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// DefaultQuality is the JPEG/WebP quality used when the caller does not
// specify one.
const DefaultQuality = 90

// Load reads an image file into a pixel buffer with WebP support.
func Load(path string) (*pixel.Buffer, error) {
	if img, err := imaging.Open(path); err == nil {
		return FromImage(img), nil
	}

	// Fallback: explicit WebP decode.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.Contains(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return FromImage(img), nil
		}
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return FromImage(img), nil
			}
		}
	} else {
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return FromImage(img), nil
			}
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// LoadFromURL downloads an image over HTTP(S) and decodes it.
func LoadFromURL(imageURL string) (*pixel.Buffer, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "PixelEngine/1.0 (+https://github.com/sehyun-dev/pixelengine)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %v", err)
	}
	return Decode(data)
}

// LoadSmart loads an image from either a file path or URL.
func LoadSmart(source string) (*pixel.Buffer, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return LoadFromURL(source)
	}
	return Load(source)
}

// Decode decodes image bytes with WebP support.
func Decode(data []byte) (*pixel.Buffer, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return FromImage(img), nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return FromImage(img), nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// DecodeReader decodes an image from an io.Reader.
func DecodeReader(r io.Reader) (*pixel.Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %v", err)
	}
	return Decode(data)
}

// FromImage converts any image.Image into a pixel buffer.
func FromImage(img image.Image) *pixel.Buffer {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return pixel.FromNRGBA(nrgba)
	}
	return pixel.FromNRGBA(imaging.Clone(img))
}

// Save encodes a buffer to disk. PNG and lossless WebP preserve the alpha
// channel, which segmentation output relies on; JPEG flattens it.
func Save(buf *pixel.Buffer, path, format string, quality int, lossless bool) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	img := buf.ToNRGBA()

	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if lossless {
			// nativewebp is the pure-Go lossless encoder; it keeps
			// the alpha channel intact.
			return nativewebp.Encode(f, img, nil)
		}
		opts := &webp.Options{Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return png.Encode(f, img)
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// EncodePNG encodes a buffer to PNG bytes. The remote enhancement client
// uses it as the wire format, since PNG is lossless and alpha-safe.
func EncodePNG(buf *pixel.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&out, buf.ToNRGBA()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodeJPEG encodes a buffer to JPEG bytes at the given quality.
func EncodeJPEG(buf *pixel.Buffer, quality int) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, buf.ToNRGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

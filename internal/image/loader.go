// Package image loads screenshots and other raster images into Bitmaps.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/contrastlens/internal/security"
	httputil "github.com/jmylchreest/contrastlens/internal/util/http"
)

// DefaultMaxBytes caps how much encoded image data is read from a stream.
const DefaultMaxBytes = 20 * 1024 * 1024

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(ctx context.Context, path string) (*Bitmap, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, BMP.
func (l *FileLoader) Load(_ context.Context, path string) (*Bitmap, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return Decode(file, info.Size()+1)
}

// Decode reads at most maxBytes of encoded image data and converts the result
// to a Bitmap. A maxBytes of zero or less uses DefaultMaxBytes.
func Decode(r io.Reader, maxBytes int64) (*Bitmap, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	img, format, err := image.Decode(security.NewLimitedReader(r, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	bm := FromImage(img)
	if err := bm.Validate(); err != nil {
		return nil, err
	}
	return bm, nil
}

// DecodeBytes decodes an in-memory encoded image.
func DecodeBytes(data []byte) (*Bitmap, error) {
	return Decode(bytes.NewReader(data), int64(len(data))+1)
}

// IsURL reports whether path should be fetched over HTTP.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidateImagePath checks if the given path is valid and points to a supported
// image file or directory. HTTP(S) URLs and "-" (stdin) are accepted as-is.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	if path == "-" || IsURL(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}

	if info.IsDir() {
		return nil
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}

	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files
// in lexical order. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}

		if info.IsDir() {
			continue
		}

		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}

// SmartLoader loads images from local files, HTTP(S) URLs and stdin ("-").
type SmartLoader struct {
	fileLoader *FileLoader
	stdin      io.Reader
	fetch      httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(fetch httputil.FetchOptions) *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		stdin:      os.Stdin,
		fetch:      fetch,
	}
}

// WithStdin replaces the reader used for "-".
func (l *SmartLoader) WithStdin(r io.Reader) *SmartLoader {
	l.stdin = r
	return l
}

// Load loads an image from a local file path, an HTTP(S) URL or stdin.
func (l *SmartLoader) Load(ctx context.Context, path string) (*Bitmap, error) {
	switch {
	case path == "-":
		return Decode(l.stdin, l.fetch.MaxBytes)
	case IsURL(path):
		return l.loadFromURL(ctx, path)
	default:
		return l.fileLoader.Load(ctx, path)
	}
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (*Bitmap, error) {
	data, err := httputil.Fetch(ctx, url, l.fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	return DecodeBytes(data)
}

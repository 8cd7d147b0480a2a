package floor

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"wayfinder/internal/geometry"
)

// ImageLoader resolves the natural size of a background image
type ImageLoader interface {
	Load(ctx context.Context, path string) (geometry.Size, error)
}

// ImageSource also decodes the full image, for raster output
type ImageSource interface {
	ImageLoader
	Image(ctx context.Context, path string) (image.Image, error)
}

// FileLoader reads images from a local asset directory
type FileLoader struct {
	Root string
}

// NewFileLoader creates a loader rooted at dir
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Root: dir}
}

// Resolve maps an asset path ("/cms/assets/minimap/x.jpg") into Root
func (l *FileLoader) Resolve(path string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	return filepath.Join(l.Root, clean)
}

// Load decodes only the image header
func (l *FileLoader) Load(ctx context.Context, path string) (geometry.Size, error) {
	if err := ctx.Err(); err != nil {
		return geometry.Size{}, err
	}
	f, err := os.Open(l.Resolve(path))
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return decodeSize(f)
}

// Image decodes the whole image
func (l *FileLoader) Image(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.Resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// HTTPLoader fetches images from the asset server
type HTTPLoader struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPLoader creates a loader for baseURL
func NewHTTPLoader(baseURL string, timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Load fetches the image and decodes its header
func (l *HTTPLoader) Load(ctx context.Context, path string) (geometry.Size, error) {
	body, err := l.open(ctx, path)
	if err != nil {
		return geometry.Size{}, err
	}
	defer body.Close()

	return decodeSize(body)
}

// Image fetches and decodes the whole image
func (l *HTTPLoader) Image(ctx context.Context, path string) (image.Image, error) {
	body, err := l.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (l *HTTPLoader) open(ctx context.Context, path string) (io.ReadCloser, error) {
	u, err := url.Parse(l.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset base URL: %w", err)
	}
	u = u.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func decodeSize(r io.Reader) (geometry.Size, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return geometry.Size{}, fmt.Errorf("image has no dimensions")
	}
	return geometry.Size{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}

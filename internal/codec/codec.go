// Package codec reads and writes scene catalogues.
//
// A catalogue is either a list of scenes or an object keyed by scene ID;
// for the keyed form a scene without an "id" takes its key.
package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wayfinder/internal/domain"
)

// Importer parses a scene catalogue
type Importer interface {
	Parse(r io.Reader) ([]domain.Scene, error)
	Format() string
}

// Exporter writes a scene catalogue
type Exporter interface {
	Export(scenes []domain.Scene, w io.Writer) error
	Format() string
}

// Codec both parses and writes a format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for "json" or "yaml"
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported scene format %q", format)
}

// ForPath picks a codec by file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer scene format from %s", path)
	}
	return ForFormat(ext)
}

// ParseFile reads a scene catalogue from disk
func ParseFile(path string) ([]domain.Scene, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenes file: %w", err)
	}
	defer f.Close()

	scenes, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenes, nil
}

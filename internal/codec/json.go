package codec

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"wayfinder/internal/domain"
)

// JSONCodec handles JSON scene catalogues
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a list of scenes or an object keyed by scene ID. Key order
// is preserved.
func (c *JSONCodec) Parse(r io.Reader) ([]domain.Scene, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	decoder := json.NewDecoder(br)

	switch first {
	case '[':
		var scenes []domain.Scene
		if err := decoder.Decode(&scenes); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return scenes, nil

	case '{':
		if _, err := decoder.Token(); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		var scenes []domain.Scene
		for decoder.More() {
			tok, err := decoder.Token()
			if err != nil {
				return nil, fmt.Errorf("failed to parse JSON: %w", err)
			}
			key, _ := tok.(string)

			var s domain.Scene
			if err := decoder.Decode(&s); err != nil {
				return nil, fmt.Errorf("failed to parse scene %q: %w", key, err)
			}
			if s.ID == "" {
				s.ID = key
			}
			scenes = append(scenes, s)
		}
		return scenes, nil
	}

	return nil, fmt.Errorf("failed to parse JSON: expected array or object, got %q", first)
}

// Export writes scenes as an indented JSON array
func (c *JSONCodec) Export(scenes []domain.Scene, w io.Writer) error {
	if scenes == nil {
		scenes = []domain.Scene{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(scenes); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// firstNonSpace peeks the first significant byte without consuming it
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF:
			// UTF-8 BOM
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			continue
		}
		return b, br.UnreadByte()
	}
}

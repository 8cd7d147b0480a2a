package codec

import (
	"fmt"
	"io"

	"wayfinder/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML scene catalogues
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a sequence of scenes or a mapping keyed by scene ID
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.Scene, error) {
	var doc yaml.Node
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		var scenes []domain.Scene
		if err := root.Decode(&scenes); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return scenes, nil

	case yaml.MappingNode:
		scenes := make([]domain.Scene, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i].Value
			var s domain.Scene
			if err := root.Content[i+1].Decode(&s); err != nil {
				return nil, fmt.Errorf("failed to parse scene %q: %w", key, err)
			}
			if s.ID == "" {
				s.ID = key
			}
			scenes = append(scenes, s)
		}
		return scenes, nil
	}

	return nil, fmt.Errorf("failed to parse YAML: expected sequence or mapping at line %d", root.Line)
}

// Export writes scenes as a YAML sequence
func (c *YAMLCodec) Export(scenes []domain.Scene, w io.Writer) error {
	if scenes == nil {
		scenes = []domain.Scene{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(scenes); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultLanguage is the language used when a requested translation is missing
const DefaultLanguage = "vi"

// LocalizedText is a display string that may carry several translations.
// On the wire it is either a plain string or an object keyed by language.
type LocalizedText map[string]string

// UnmarshalJSON accepts a string or a {lang: text} object
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LocalizedText{DefaultLanguage: s}
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("localized text must be a string or object: %w", err)
	}
	*t = LocalizedText(m)
	return nil
}

// UnmarshalYAML accepts a string or a {lang: text} mapping
func (t *LocalizedText) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*t = LocalizedText{DefaultLanguage: s}
		return nil
	}

	var m map[string]string
	if err := unmarshal(&m); err != nil {
		return fmt.Errorf("localized text must be a string or mapping: %w", err)
	}
	*t = LocalizedText(m)
	return nil
}

// Text returns the translation for lang, falling back to the default
// language and then to any translation (by sorted language code).
func (t LocalizedText) Text(lang string) string {
	if s := t[lang]; s != "" {
		return s
	}
	if s := t[DefaultLanguage]; s != "" {
		return s
	}
	langs := make([]string, 0, len(t))
	for k := range t {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	for _, k := range langs {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}

// Hotspot links a scene to a neighboring scene
type Hotspot struct {
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Scene is a navigable location in the tour
type Scene struct {
	ID       string        `json:"id" yaml:"id"`
	Name     LocalizedText `json:"name,omitempty" yaml:"name,omitempty"`
	Floor    float64       `json:"floor" yaml:"floor"`
	Hotspots []Hotspot     `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
}

// NormalizeScenes drops scenes without an ID and duplicate IDs
func NormalizeScenes(scenes []Scene) []Scene {
	seen := make(map[string]bool, len(scenes))
	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// SceneNames returns a node ID to display name table for lang
func SceneNames(scenes []Scene, lang string) map[string]string {
	names := make(map[string]string, len(scenes))
	for _, s := range scenes {
		if name := s.Name.Text(lang); name != "" {
			names[s.ID] = name
		}
	}
	return names
}

// ApplyScenes copies scene-implied attributes (floor and display name) into
// matching graph nodes. Nodes without a scene are left alone.
func ApplyScenes(g *Graph, scenes []Scene, lang string) {
	byID := make(map[string]*Scene, len(scenes))
	for i := range scenes {
		byID[scenes[i].ID] = &scenes[i]
	}
	for i := range g.Nodes {
		s, ok := byID[g.Nodes[i].ID]
		if !ok {
			continue
		}
		g.Nodes[i].Floor = s.Floor
		g.Nodes[i].floorUnset = false
		if name := s.Name.Text(lang); name != "" {
			g.Nodes[i].Label = name
		}
	}
}

// GraphFromScenes builds a graph with one node per scene and one edge per
// hotspot. Generated nodes carry no coordinates.
func GraphFromScenes(scenes []Scene, lang string) *Graph {
	g := NewGraph()
	for _, s := range scenes {
		label := s.Name.Text(lang)
		if label == "" {
			label = s.ID
		}
		g.AddNode(*NewNode(s.ID, label, s.Floor))
		for _, hs := range s.Hotspots {
			if hs.Target == "" {
				continue
			}
			g.AddEdge(Edge{From: s.ID, To: hs.Target, Label: hs.Label})
		}
	}
	return g
}

package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"wayfinder/internal/domain"
)

func sceneIDs(scenes []domain.Scene) []string {
	ids := make([]string, 0, len(scenes))
	for _, s := range scenes {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestJSONParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "list",
			input:   `[{"id":"a","floor":1},{"id":"b","floor":2}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "keyed object keeps key order",
			input:   `{"z":{"floor":0},"a":{"id":"a","floor":1},"m":{"floor":5.5}}`,
			wantIDs: []string{"z", "a", "m"},
		},
		{
			name:    "leading whitespace and BOM",
			input:   "\xEF\xBB\xBF\n  [{\"id\":\"a\"}]",
			wantIDs: []string{"a"},
		},
		{name: "scalar", input: `"nope"`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
		{name: "broken", input: `[{"id":`, wantErr: true},
	}

	c := NewJSONCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Parse(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ids := sceneIDs(got); !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestJSONParseNames(t *testing.T) {
	input := `[
		{"id":"lobby","name":{"vi":"Sảnh","en":"Lobby"},"floor":0,
		 "hotspots":[{"target":"hall","label":"Hall"}]},
		{"id":"hall","name":"Hội trường","floor":5.5}
	]`

	got, err := NewJSONCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Name.Text("en") != "Lobby" {
		t.Errorf("lobby en = %q", got[0].Name.Text("en"))
	}
	if got[1].Name.Text("en") != "Hội trường" {
		t.Errorf("plain string name should fall back, got %q", got[1].Name.Text("en"))
	}
	if len(got[0].Hotspots) != 1 || got[0].Hotspots[0].Target != "hall" {
		t.Errorf("hotspots = %+v", got[0].Hotspots)
	}
	if got[1].Floor != 5.5 {
		t.Errorf("floor = %v, want 5.5", got[1].Floor)
	}
}

func TestYAMLParse(t *testing.T) {
	t.Run("sequence", func(t *testing.T) {
		input := `
- id: lobby
  name:
    vi: Sảnh
    en: Lobby
  floor: 0
  hotspots:
    - target: hall
- id: hall
  name: Hội trường
  floor: 1
`
		got, err := NewYAMLCodec().Parse(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if ids := sceneIDs(got); !reflect.DeepEqual(ids, []string{"lobby", "hall"}) {
			t.Errorf("ids = %v", ids)
		}
		if got[0].Name.Text("en") != "Lobby" || got[1].Name.Text("vi") != "Hội trường" {
			t.Errorf("names = %v, %v", got[0].Name, got[1].Name)
		}
	})

	t.Run("mapping", func(t *testing.T) {
		input := `
b:
  floor: 2
a:
  id: a
  floor: 1
`
		got, err := NewYAMLCodec().Parse(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if ids := sceneIDs(got); !reflect.DeepEqual(ids, []string{"b", "a"}) {
			t.Errorf("ids = %v", ids)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got, err := NewYAMLCodec().Parse(strings.NewReader(""))
		if err != nil || len(got) != 0 {
			t.Errorf("Parse(\"\") = %v, %v", got, err)
		}
	})

	t.Run("scalar", func(t *testing.T) {
		if _, err := NewYAMLCodec().Parse(strings.NewReader("hello")); err == nil {
			t.Error("expected error for scalar document")
		}
	})
}

func TestExportRoundTrip(t *testing.T) {
	scenes := []domain.Scene{
		{ID: "lobby", Name: domain.LocalizedText{"vi": "Sảnh"}, Floor: 0, Hotspots: []domain.Hotspot{{Target: "hall"}}},
		{ID: "hall", Floor: 5.5},
	}

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			c, err := ForFormat(format)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := c.Export(scenes, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			got, err := c.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, scenes) {
				t.Errorf("round trip = %+v, want %+v", got, scenes)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		format  string
		wantErr bool
	}{
		{"scenes.json", "json", false},
		{"scenes.YAML", "yaml", false},
		{"data/scenes.yml", "yaml", false},
		{"scenes", "", true},
		{"scenes.xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := ForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Format() != tt.format {
				t.Errorf("Format() = %q, want %q", c.Format(), tt.format)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.json")
	if err := os.WriteFile(path, []byte(`{"a":{"floor":1}}`), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %+v", got)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

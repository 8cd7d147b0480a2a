package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"wayfinder/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// floatPtrToNull converts an optional float to sql.NullFloat64
func floatPtrToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// nullToFloatPtr converts sql.NullFloat64 to an optional float
func nullToFloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// Empty maps and slices are stored as NULL.
func marshalToNull(v interface{}) (sql.NullString, error) {
	switch m := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case map[string]domain.Point:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	case domain.LocalizedText:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	case []domain.Hotspot:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order must match between the *Columns constant, scanArgs() and
// the insert statements in sqlite.go.

const nodeColumns = `id, label, floor, x, y, positions`

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID            string
	Label         sql.NullString
	Floor         float64
	X             sql.NullFloat64
	Y             sql.NullFloat64
	PositionsJSON sql.NullString
}

func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.Label, &r.Floor, &r.X, &r.Y, &r.PositionsJSON}
}

func (r *nodeRow) toDomain() (domain.Node, error) {
	n := domain.Node{
		ID:    r.ID,
		Label: nullToString(r.Label),
		Floor: r.Floor,
		X:     nullToFloatPtr(r.X),
		Y:     nullToFloatPtr(r.Y),
	}
	if err := unmarshalJSONField(r.PositionsJSON, &n.Positions); err != nil {
		return n, fmt.Errorf("unmarshal positions for %s: %w", r.ID, err)
	}
	return n, nil
}

const edgeColumns = `from_id, to_id, weight, label`

// edgeRow holds all columns from an edge query for scanning
type edgeRow struct {
	From   string
	To     string
	Weight sql.NullFloat64
	Label  sql.NullString
}

func (r *edgeRow) scanArgs() []interface{} {
	return []interface{}{&r.From, &r.To, &r.Weight, &r.Label}
}

func (r *edgeRow) toDomain() domain.Edge {
	return domain.Edge{
		From:  r.From,
		To:    r.To,
		W:     nullToFloatPtr(r.Weight),
		Label: nullToString(r.Label),
	}
}

const sceneColumns = `id, name, floor, hotspots`

// sceneRow holds all columns from a scene query for scanning
type sceneRow struct {
	ID           string
	NameJSON     sql.NullString
	Floor        float64
	HotspotsJSON sql.NullString
}

func (r *sceneRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.NameJSON, &r.Floor, &r.HotspotsJSON}
}

func (r *sceneRow) toDomain() (domain.Scene, error) {
	s := domain.Scene{ID: r.ID, Floor: r.Floor}
	if err := unmarshalJSONField(r.NameJSON, &s.Name); err != nil {
		return s, fmt.Errorf("unmarshal name for %s: %w", r.ID, err)
	}
	if err := unmarshalJSONField(r.HotspotsJSON, &s.Hotspots); err != nil {
		return s, fmt.Errorf("unmarshal hotspots for %s: %w", r.ID, err)
	}
	return s, nil
}

// ============================================================================
// Write Helpers
// ============================================================================

// nodeInsertArgs returns: seq, id, label, floor, x, y, positions
func nodeInsertArgs(seq int, n *domain.Node) ([]interface{}, error) {
	positions, err := marshalToNull(n.Positions)
	if err != nil {
		return nil, fmt.Errorf("marshal positions: %w", err)
	}
	return []interface{}{
		seq,
		n.ID,
		stringToNull(n.Label),
		n.Floor,
		floatPtrToNull(n.X),
		floatPtrToNull(n.Y),
		positions,
	}, nil
}

// edgeInsertArgs returns: seq, from_id, to_id, weight, label
func edgeInsertArgs(seq int, e *domain.Edge) []interface{} {
	return []interface{}{
		seq,
		e.From,
		e.To,
		floatPtrToNull(e.W),
		stringToNull(e.Label),
	}
}

// sceneInsertArgs returns: id, name, floor, hotspots
func sceneInsertArgs(s *domain.Scene) ([]interface{}, error) {
	name, err := marshalToNull(s.Name)
	if err != nil {
		return nil, fmt.Errorf("marshal name: %w", err)
	}
	hotspots, err := marshalToNull(s.Hotspots)
	if err != nil {
		return nil, fmt.Errorf("marshal hotspots: %w", err)
	}
	return []interface{}{s.ID, name, s.Floor, hotspots}, nil
}

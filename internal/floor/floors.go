// Package floor resolves floor background images and fits them to the
// viewport.
package floor

import (
	"sort"

	"wayfinder/internal/domain"
)

// DefaultKey is the floor whose image stands in for floors without one
const DefaultKey = "0"

// Floors maps a floor key ("0", "5", "5.5") to its background image path
type Floors map[string]string

// DefaultFloors returns the campus floor plan set
func DefaultFloors() Floors {
	return Floors{
		"0":   "/cms/assets/minimap/sơ_đồ_cả_trường.jpg",
		"1":   "/cms/assets/minimap/lầu_1_Khu_A-B.jpg",
		"2":   "/cms/assets/minimap/lầu_2_Khu_A-B.jpg",
		"3":   "/cms/assets/minimap/lầu_3_Khu_A-B.jpg",
		"4":   "/cms/assets/minimap/lầu_4_Khu_A.jpg",
		"5":   "/cms/assets/minimap/lầu_5_Khu_A.jpg",
		"5.5": "/cms/assets/minimap/mặt_lửng_lầu_5_Khu_A.jpg",
		"6":   "/cms/assets/minimap/lầu_6_Khu_A.jpg",
	}
}

// Path returns the image for a floor, falling back to floor 0. The second
// result is false when neither exists.
func (f Floors) Path(key string) (string, bool) {
	if p, ok := f[key]; ok && p != "" {
		return p, true
	}
	if p, ok := f[DefaultKey]; ok && p != "" {
		return p, true
	}
	return "", false
}

// Keys returns the configured floor keys in numeric order
func (f Floors) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := domain.ParseFloorKey(keys[i])
		b, errB := domain.ParseFloorKey(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// Filter returns the nodes that belong to the floor identified by key
func Filter(nodes []domain.Node, key string) []domain.Node {
	var out []domain.Node
	for _, n := range nodes {
		if domain.FloorKey(n.Floor) == key {
			out = append(out, n)
		}
	}
	return out
}

// Package repository defines the data access interface for the wayfinding
// graph and the scene catalogue.
//
// The sqlite subpackage provides the implementation. Nodes keep their
// per-floor positions as a JSON column next to the legacy x/y pair, and
// row order is preserved so a saved graph reads back in authoring order.
//
// SaveGraph is a transactional replace: callers merge before saving (see
// the service package), the store itself never merges.
package repository

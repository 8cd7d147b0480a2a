// Package service implements the wayfinding graph's business rules.
//
// GraphService sits between the HTTP handlers and the repository. The
// scene catalogue is the source of truth for which scenes exist and how
// they connect; the stored graph is the source of truth for where nodes
// sit on each floor. Reads combine the two, writes merge so that a client
// holding a partial graph never erases positions it did not send.
//
// # Event System
//
// Mutations publish graph_changed or scene_changed on the EventBus. The
// hub fans them out to SSE clients and live minimap sessions reload on
// them.
package service
